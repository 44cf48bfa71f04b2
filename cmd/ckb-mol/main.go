// ckb-mol CLI - Molecule codec and CKB transaction toolkit
//
// Example usage:
//
//	# Encode a JSON transaction into its Molecule bytes (hex)
//	ckb-mol tx encode tx.json > tx.hex
//
//	# Build a transaction from live cells in the cell store
//	ckb-mol tx propose proposal.json > unsigned.hex
//
//	# Sign the group owned by a key, then merge copies and extract
//	ckb-mol tx sign unsigned.hex --key 0x... > alice.hex
//	ckb-mol tx combine alice.hex bob.hex > signed.hex
//	ckb-mol tx extract signed.hex
package main

// Version is the ckb-mol release.
const Version = "0.1.0"

func main() {
	Execute()
}
