package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		b           byte
		op          OpCode
		allowRevert bool
	}{
		{0x00, V3_SWAP_EXACT_IN, false},
		{0x81, V3_SWAP_EXACT_OUT, true},
		{0x21, EXECUTE_SUB_PLAN, false},
		{0xa1, EXECUTE_SUB_PLAN, true},
		{0x7f, OpCode(0x7f), false},
	}
	for _, tt := range tests {
		op, allowRevert := ParseCommand(tt.b)
		if op != tt.op || allowRevert != tt.allowRevert {
			t.Fatalf("ParseCommand(0x%02x) = (%v, %v), want (%v, %v)", tt.b, op, allowRevert, tt.op, tt.allowRevert)
		}
		if b := CommandByte(op, allowRevert); b != tt.b {
			t.Fatalf("CommandByte(%v, %v) = 0x%02x, want 0x%02x", op, allowRevert, b, tt.b)
		}
	}
}

func TestOpCodeSets(t *testing.T) {
	for op := OpCode(0); op <= OpCode(CommandTypeMask); op++ {
		switch op {
		case EXECUTE_SUB_PLAN, PERMIT2_PERMIT, PERMIT2_PERMIT_BATCH:
			require.True(t, op.IsRevertible(), op.String())
		default:
			require.False(t, op.IsRevertible(), op.String())
		}
		switch op {
		case V3_POSITION_MANAGER_PERMIT, V3_POSITION_MANAGER_CALL, V4_POSITION_MANAGER_CALL:
			require.True(t, op.IsPassThrough(), op.String())
		default:
			require.False(t, op.IsPassThrough(), op.String())
		}
	}
	for _, op := range []OpCode{0x07, 0x0f, 0x15, 0x19, 0x1c, 0x20, 0x22, 0x7f} {
		require.False(t, op.Defined(), "0x%02x", byte(op))
		require.Contains(t, op.String(), "not defined")
	}
	require.Equal(t, "V4_SWAP", V4_SWAP.String())
}
