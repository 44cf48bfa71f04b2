package ckb

import (
	"github.com/suffix-labs/ckb-molecule/pkg/hasher"
	"github.com/suffix-labs/ckb-molecule/pkg/num"
)

// HashTypeID derives type-id script args from the first input of the
// creating transaction and the index of the output being created.
func HashTypeID(firstInput CellInputLike, outputIndex uint64) (Hash, error) {
	in, err := firstInput.ToCellInput()
	if err != nil {
		return Hash{}, err
	}
	b, err := in.ToBytes()
	if err != nil {
		return Hash{}, err
	}
	return Hash(hasher.HashCkb(b, num.Uint64LE(outputIndex))), nil
}
