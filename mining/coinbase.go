// Package mining assembles block templates from the current chain tip and
// mempool, and solves them by proof-of-work search.
package mining

import (
	"fmt"

	"github.com/supernova-chain/supernova/chainparams"
	"github.com/supernova-chain/supernova/crypto"
	"github.com/supernova-chain/supernova/wire"
)

// CoinbaseTag is appended to every generated coinbase's height script, a
// node-identifying marker of the kind daglabs-btcd's mining.CoinbaseFlags
// embeds ("/kaspad/").
const CoinbaseTag = "/supernova/"

// scriptPubKeyForAddress decodes a bech32m address into the scheme-tagged
// pubkey-hash payload validate.BuildScriptPubKey locks outputs to.
func scriptPubKeyForAddress(address string) ([]byte, error) {
	_, scheme, hash, err := crypto.AddressPubKeyHash(address)
	if err != nil {
		return nil, fmt.Errorf("mining: decode address: %w", err)
	}
	out := make([]byte, 1+len(hash))
	out[0] = byte(scheme)
	copy(out[1:], hash[:])
	return out, nil
}

// encodeHeightScript encodes height the way BIP34 requires the coinbase
// input's unlock script to: a minimal little-endian push, high bit padded
// with a zero byte so the value never reads as negative.
func encodeHeightScript(height uint32) []byte {
	if height == 0 {
		return []byte{0x01, 0x00}
	}
	var data []byte
	h := height
	for h > 0 {
		data = append(data, byte(h))
		h >>= 8
	}
	if data[len(data)-1]&0x80 != 0 {
		data = append(data, 0x00)
	}
	return append([]byte{byte(len(data))}, data...)
}

// buildCoinbase assembles the sole coinbase transaction for a block at
// height, paying subsidy+fees split between rewardScript and
// treasuryScript.
func buildCoinbase(height uint32, totalFees uint64, rewardScript, treasuryScript []byte, params *chainparams.Params) *wire.Transaction {
	subsidy := params.Subsidy(height)
	totalReward := subsidy + totalFees
	treasury := params.TreasuryShare(totalReward)
	minerAmount := totalReward - treasury

	script := encodeHeightScript(height)
	script = append(script, []byte(CoinbaseTag)...)

	outputs := []*wire.TxOutput{
		{Value: minerAmount, ScriptPubKey: rewardScript},
	}
	if treasury > 0 {
		outputs = append(outputs, &wire.TxOutput{Value: treasury, ScriptPubKey: treasuryScript})
	}

	return &wire.Transaction{
		Version: 1,
		Inputs: []*wire.TxInput{{
			PrevOut:   wire.OutPoint{Vout: wire.CoinbasePrevOutVout},
			ScriptSig: script,
			Sequence:  0xffffffff,
		}},
		Outputs: outputs,
	}
}
