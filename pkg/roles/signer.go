package roles

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/suffix-labs/ckb-molecule/pkg/bytesutil"
	"github.com/suffix-labs/ckb-molecule/pkg/ckb"
	"github.com/suffix-labs/ckb-molecule/pkg/crypto"
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
)

// Secp256k1Blake160CodeHash is the type hash of the default lock script,
// secp256k1-blake160-sighash-all.
var Secp256k1Blake160CodeHash = ckb.Hash{
	0x9b, 0xd7, 0xe0, 0x6f, 0x3e, 0xcf, 0x4b, 0xe0,
	0xf2, 0xfc, 0xd2, 0x18, 0x8b, 0x23, 0xf1, 0xb9,
	0xfc, 0xc8, 0x8e, 0x5d, 0x4b, 0x65, 0xa8, 0x63,
	0x7b, 0x17, 0x72, 0x3b, 0xbd, 0xa3, 0xcc, 0xe8,
}

// Secp256k1Lock returns the default lock script owned by pub.
func Secp256k1Lock(pub *crypto.PublicKey) ckb.Script {
	return ckb.Script{
		CodeHash: Secp256k1Blake160CodeHash,
		HashType: ckb.HashTypeType,
		Args:     pub.Blake160(),
	}
}

// Signer fills the witness lock of secp256k1/blake160 lock groups.
//
// For a group it reserves a zero-filled 65-byte witness lock at the group's
// first input, computes the sighash-all digest over that witness, signs it
// and writes the recoverable signature into the lock. Several signers can
// each sign their own group of the same transaction; the Combiner merges
// the results.
type Signer struct {
	tx     *ckb.Transaction
	hasher hasher.Factory
	logger *zap.Logger
}

// NewSigner creates a Signer over tx. Every input of tx must be resolved. A
// nil factory selects the CKB hasher.
func NewSigner(tx *ckb.Transaction, f hasher.Factory, logger *zap.Logger) *Signer {
	if f == nil {
		f = hasher.NewCkb
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Signer{tx: tx, hasher: f, logger: logger}
}

// Sign signs the group locked by the default lock of key.
func (s *Signer) Sign(key *crypto.PrivateKey) (int, error) {
	return s.SignLock(Secp256k1Lock(key.PublicKey()), key)
}

// SignLock signs the group of inputs locked by lock with key and returns the
// position of the witness that received the signature.
func (s *Signer) SignLock(lock ckb.Script, key *crypto.PrivateKey) (int, error) {
	position, ok, err := s.tx.FindInputIndexByLock(lock)
	if err != nil {
		return -1, &SignError{InputIndex: -1, Message: "failed to find lock group", Cause: err}
	}
	if !ok {
		return -1, &SignError{InputIndex: -1, Message: "no input is locked by the signing script"}
	}
	if err := s.tx.PrepareWitnessLockAt(position, crypto.SignatureSize); err != nil {
		return -1, &SignError{InputIndex: position, Message: "failed to prepare witness", Cause: err}
	}

	info, _, err := s.tx.GetSignHashInfo(lock, s.hasher)
	if err != nil {
		return -1, &SignError{InputIndex: position, Message: "failed to compute sighash", Cause: err}
	}

	signature := key.SignRecoverable(info.Message)

	wa, err := s.tx.GetWitnessArgsAt(position)
	if err != nil || wa == nil {
		return -1, &SignError{InputIndex: position, Message: "prepared witness is unreadable", Cause: err}
	}
	wa.Lock = signature
	if err := s.tx.SetWitnessArgsAt(position, *wa); err != nil {
		return -1, &SignError{InputIndex: position, Message: "failed to store signature", Cause: err}
	}

	s.logger.Debug("signed lock group",
		zap.Int("position", position),
		zap.Stringer("message", info.Message))
	return position, nil
}

// Verify checks the signature in the witness of the group locked by lock
// against the blake160 in the lock's args.
func (s *Signer) Verify(lock ckb.Script) error {
	return verifyGroup(s.tx, lock, s.hasher)
}

// Finish returns the signed transaction.
func (s *Signer) Finish() *ckb.Transaction {
	return s.tx
}

// verifyGroup recomputes the digest with the signature zeroed out, as it
// was when signed, and checks the recovered key against lock.Args.
func verifyGroup(tx *ckb.Transaction, lock ckb.Script, f hasher.Factory) error {
	position, ok, err := tx.FindInputIndexByLock(lock)
	if err != nil {
		return &SignError{InputIndex: -1, Message: "failed to find lock group", Cause: err}
	}
	if !ok {
		return &SignError{InputIndex: -1, Message: "no input is locked by the script"}
	}

	wa, err := tx.GetWitnessArgsAt(position)
	if err != nil {
		return &SignError{InputIndex: position, Message: "witness is not WitnessArgs", Cause: err}
	}
	if wa == nil || len(wa.Lock) != crypto.SignatureSize {
		return &SignError{InputIndex: position, Message: "witness lock holds no signature"}
	}
	signature := bytesutil.Clone(wa.Lock)

	unsigned, err := tx.Clone()
	if err != nil {
		return err
	}
	wa.Lock = bytesutil.Zeros(crypto.SignatureSize)
	if err := unsigned.SetWitnessArgsAt(position, *wa); err != nil {
		return err
	}
	info, _, err := unsigned.GetSignHashInfo(lock, f)
	if err != nil {
		return &SignError{InputIndex: position, Message: "failed to compute sighash", Cause: err}
	}
	if !crypto.VerifySignature(lock.Args, info.Message, signature) {
		return &SignError{InputIndex: position, Message: fmt.Sprintf("signature does not match args %s", bytesutil.ToHex(lock.Args))}
	}
	return nil
}
