package main

import (
	"fmt"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/chainparams"
	"github.com/supernova-chain/supernova/crypto"
	"github.com/supernova-chain/supernova/wire"
)

// maxGenesisNonceSearch bounds the proof-of-work search buildGenesisBlock
// runs to satisfy GenesisBits; at every network's starting difficulty
// this converges in well under a second, so a search this wide only
// fails if GenesisBits itself is misconfigured.
const maxGenesisNonceSearch = 1 << 32

// genesisTimestamp is a fixed, network-independent wall-clock stamp for
// block 0; the genesis block's validity never depends on chain
// timestamp rules. Every network uses this same value: what keeps two
// networks' genesis blocks from sharing bytes is the network name in the
// coinbase tag (genesisCoinbaseTag).
const genesisTimestamp = 1_700_000_000

// scriptPubKeyForAddress decodes a bech32m address into the scheme-tagged
// pubkey-hash payload coinbase outputs lock to, mirroring
// mining.scriptPubKeyForAddress for the one call site outside that
// package that needs it.
func scriptPubKeyForAddress(address string) ([]byte, error) {
	_, scheme, hash, err := crypto.AddressPubKeyHash(address)
	if err != nil {
		return nil, fmt.Errorf("supernovad: decode genesis reward address: %w", err)
	}
	out := make([]byte, 1+len(hash))
	out[0] = byte(scheme)
	copy(out[1:], hash[:])
	return out, nil
}

// buildGenesisBlock assembles the network's block 0: a single coinbase
// paying the entire block-0 subsidy to rewardAddress. The treasury split
// rule does not apply to genesis, since its issuance is fixed by network
// parameters rather than mined.
func buildGenesisBlock(params *chainparams.Params, rewardAddress string) (*wire.Block, error) {
	script, err := scriptPubKeyForAddress(rewardAddress)
	if err != nil {
		return nil, err
	}
	coinbase := &wire.Transaction{
		Version: 1,
		Inputs: []*wire.TxInput{{
			PrevOut:   wire.OutPoint{Vout: wire.CoinbasePrevOutVout},
			ScriptSig: genesisCoinbaseTag(params.Name),
			Sequence:  0xffffffff,
		}},
		Outputs: []*wire.TxOutput{{Value: params.Subsidy(0), ScriptPubKey: script}},
	}
	header := wire.BlockHeader{
		Version:    1,
		PrevHash:   chainhash.ZeroHash,
		MerkleRoot: chainhash.MerkleRoot([]chainhash.Hash{coinbase.TxID()}),
		Timestamp:  genesisTimestamp,
		Bits:       params.GenesisBits,
	}
	if err := solveGenesisHeader(&header); err != nil {
		return nil, err
	}
	return &wire.Block{Header: header, Transactions: []*wire.Transaction{coinbase}}, nil
}

// solveGenesisHeader searches header.Nonce for a value whose block hash
// satisfies header.Bits, the same target check validate.CheckProofOfWork
// runs, so a freshly bootstrapped genesis block never fails block sanity.
func solveGenesisHeader(header *wire.BlockHeader) error {
	target := chainhash.CompactToBig(header.Bits)
	for i := 0; i < maxGenesisNonceSearch; i++ {
		header.Nonce = uint32(i)
		hash := header.BlockHash()
		if chainhash.HashToBig(&hash).Cmp(target) <= 0 {
			return nil
		}
	}
	return fmt.Errorf("supernovad: exhausted nonce search for genesis block")
}

// genesisCoinbaseTag builds the genesis coinbase's unlock script: a
// single length-prefixed push of the network name, kept under the
// coinbase script-size ceiling validate.CheckTransactionSanity enforces.
func genesisCoinbaseTag(network string) []byte {
	tag := "genesis/" + network
	if len(tag) > 149 {
		tag = tag[:149]
	}
	return append([]byte{byte(len(tag))}, []byte(tag)...)
}
