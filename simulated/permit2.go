package simulated

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/clydemeng/bsc-router/core/state"
	"github.com/clydemeng/bsc-router/core/types"
	"github.com/clydemeng/bsc-router/core/vm"
	"github.com/clydemeng/bsc-router/tracing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrSignatureExpired      = errors.New("signature expired")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrInvalidNonce          = errors.New("invalid nonce")
	ErrAllowanceExpired      = errors.New("allowance expired")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// MaxAllowance is the uint160 allowance that is never spent down.
var MaxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))

var permitDetailsFields = []types.Field{
	{Name: "token", Type: "address"},
	{Name: "amount", Type: "uint160"},
	{Name: "expiration", Type: "uint48"},
	{Name: "nonce", Type: "uint48"},
}

var (
	permitSingleSchema = types.MustNewSchema("PermitSingle", types.Field{Name: "permit", Type: "tuple", Components: []types.Field{
		{Name: "details", Type: "tuple", Components: permitDetailsFields},
		{Name: "spender", Type: "address"},
		{Name: "sigDeadline", Type: "uint256"},
	}})
	permitBatchSchema = types.MustNewSchema("PermitBatch", types.Field{Name: "permit", Type: "tuple", Components: []types.Field{
		{Name: "details", Type: "tuple[]", Components: permitDetailsFields},
		{Name: "spender", Type: "address"},
		{Name: "sigDeadline", Type: "uint256"},
	}})
)

// allowance is the record stored per (owner, token, spender).
type allowance struct {
	Amount     *big.Int
	Expiration uint64
	Nonce      uint64
}

// Permit2 is a signature-based allowance service. Allowances live as records
// of the service's address, so they revert with the state.
type Permit2 struct {
	address common.Address
	state   *state.StateDB
	now     func() uint64
	hooks   *tracing.Hooks
}

// NewPermit2 deploys the service at address.
func NewPermit2(address common.Address, st *state.StateDB, now func() uint64) *Permit2 {
	return &Permit2{address: address, state: st, now: now}
}

func (p *Permit2) Address() common.Address { return p.address }

func allowanceKey(owner, token, spender common.Address) common.Hash {
	return state.RecordKey(owner.Bytes(), token.Bytes(), spender.Bytes())
}

// Allowance returns the current allowance of spender over owner's token.
func (p *Permit2) Allowance(owner, token, spender common.Address) (amount *big.Int, expiration, nonce uint64) {
	a := p.allowance(owner, token, spender)
	return new(big.Int).Set(a.Amount), a.Expiration, a.Nonce
}

func (p *Permit2) allowance(owner, token, spender common.Address) allowance {
	if v, ok := p.state.GetRecord(p.address, allowanceKey(owner, token, spender)); ok {
		return v.(allowance)
	}
	return allowance{Amount: new(big.Int)}
}

func (p *Permit2) setAllowance(owner, token, spender common.Address, a allowance) {
	p.state.SetRecord(p.address, allowanceKey(owner, token, spender), a)
}

// Approve sets an allowance directly, the way an owner's own transaction
// would. The nonce is left untouched.
func (p *Permit2) Approve(owner, token, spender common.Address, amount *big.Int, expiration uint64) {
	a := p.allowance(owner, token, spender)
	p.setAllowance(owner, token, spender, allowance{Amount: new(big.Int).Set(amount), Expiration: expiration, Nonce: a.Nonce})
}

// PermitDigest is the message an owner signs to grant permit.
func (p *Permit2) PermitDigest(permit vm.PermitSingle) ([]byte, error) {
	blob, err := permitSingleSchema.Encode(struct{ Permit vm.PermitSingle }{permit})
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(p.address.Bytes(), blob), nil
}

// PermitBatchDigest is the message an owner signs to grant permit.
func (p *Permit2) PermitBatchDigest(permit vm.PermitBatch) ([]byte, error) {
	blob, err := permitBatchSchema.Encode(struct{ Permit vm.PermitBatch }{permit})
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(p.address.Bytes(), blob), nil
}

// SignPermit signs permit with key.
func (p *Permit2) SignPermit(key *ecdsa.PrivateKey, permit vm.PermitSingle) ([]byte, error) {
	digest, err := p.PermitDigest(permit)
	if err != nil {
		return nil, err
	}
	return crypto.Sign(digest, key)
}

// SignPermitBatch signs permit with key.
func (p *Permit2) SignPermitBatch(key *ecdsa.PrivateKey, permit vm.PermitBatch) ([]byte, error) {
	digest, err := p.PermitBatchDigest(permit)
	if err != nil {
		return nil, err
	}
	return crypto.Sign(digest, key)
}

func (p *Permit2) verify(owner common.Address, digest, signature []byte, sigDeadline *big.Int) error {
	if sigDeadline.Cmp(new(big.Int).SetUint64(p.now())) < 0 {
		return fmt.Errorf("%w: deadline %v", ErrSignatureExpired, sigDeadline)
	}
	if len(signature) != crypto.SignatureLength {
		return fmt.Errorf("%w: length %d", ErrInvalidSignature, len(signature))
	}
	pub, err := crypto.SigToPub(digest, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if signer := crypto.PubkeyToAddress(*pub); signer != owner {
		return fmt.Errorf("%w: signed by %s", ErrInvalidSignature, signer.Hex())
	}
	return nil
}

func (p *Permit2) apply(owner, spender common.Address, d vm.PermitDetails) error {
	a := p.allowance(owner, d.Token, spender)
	if !d.Nonce.IsUint64() || d.Nonce.Uint64() != a.Nonce {
		return fmt.Errorf("%w: have %d, got %v", ErrInvalidNonce, a.Nonce, d.Nonce)
	}
	next := allowance{Amount: new(big.Int).Set(d.Amount), Expiration: d.Expiration.Uint64(), Nonce: a.Nonce + 1}
	if next.Expiration == 0 {
		next.Expiration = p.now()
	}
	p.setAllowance(owner, d.Token, spender, next)
	if p.hooks != nil && p.hooks.OnNonceChange != nil {
		p.hooks.OnNonceChange(owner, d.Token, spender, a.Nonce, next.Nonce, tracing.NonceChangePermit)
	}
	return nil
}

// Permit installs a signed allowance of owner.
func (p *Permit2) Permit(owner common.Address, permit vm.PermitSingle, signature []byte) error {
	digest, err := p.PermitDigest(permit)
	if err != nil {
		return err
	}
	if err := p.verify(owner, digest, signature, permit.SigDeadline); err != nil {
		return err
	}
	return p.apply(owner, permit.Spender, permit.Details)
}

// PermitBatch installs several signed allowances of owner at once.
func (p *Permit2) PermitBatch(owner common.Address, permit vm.PermitBatch, signature []byte) error {
	digest, err := p.PermitBatchDigest(permit)
	if err != nil {
		return err
	}
	if err := p.verify(owner, digest, signature, permit.SigDeadline); err != nil {
		return err
	}
	for _, d := range permit.Details {
		if err := p.apply(owner, permit.Spender, d); err != nil {
			return err
		}
	}
	return nil
}

// TransferFrom moves amount of token from owner to recipient, spending the
// allowance owner granted spender.
func (p *Permit2) TransferFrom(spender, owner, recipient common.Address, amount *big.Int, token common.Address) error {
	a := p.allowance(owner, token, spender)
	if a.Expiration < p.now() {
		return fmt.Errorf("%w: %s for %s expired at %d", ErrAllowanceExpired, token.Hex(), spender.Hex(), a.Expiration)
	}
	if a.Amount.Cmp(MaxAllowance) != 0 {
		if amount.Cmp(a.Amount) > 0 {
			return fmt.Errorf("%w: %v of %s, allowed %v", ErrInsufficientAllowance, amount, token.Hex(), a.Amount)
		}
		a.Amount = new(big.Int).Sub(a.Amount, amount)
		p.setAllowance(owner, token, spender, a)
	}
	return p.state.Transfer(token, owner, recipient, amount, tracing.BalanceChangePermit2Transfer)
}

// TransferFromBatch runs every transfer, all against spender's allowances.
func (p *Permit2) TransferFromBatch(spender common.Address, transfers []vm.AllowanceTransferDetails) error {
	for i, t := range transfers {
		if err := p.TransferFrom(spender, t.From, t.To, t.Amount, t.Token); err != nil {
			return fmt.Errorf("transfer %d: %w", i, err)
		}
	}
	return nil
}
