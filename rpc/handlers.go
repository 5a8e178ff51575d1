package rpc

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/crypto"
	"github.com/supernova-chain/supernova/htlc"
	"github.com/supernova-chain/supernova/validate"
	"github.com/supernova-chain/supernova/wire"
)

func renderHeader(h *wire.BlockHeader, height uint32) HeaderResult {
	return HeaderResult{
		Hash:       h.BlockHash().String(),
		Version:    h.Version,
		PrevHash:   h.PrevHash.String(),
		MerkleRoot: h.MerkleRoot.String(),
		Timestamp:  h.Timestamp,
		Bits:       h.Bits,
		Nonce:      h.Nonce,
		Height:     height,
	}
}

func renderTransaction(tx *wire.Transaction) TransactionResult {
	out := TransactionResult{
		TxID:     tx.TxID().String(),
		Version:  tx.Version,
		LockTime: tx.LockTime,
		Inputs:   make([]InputResult, 0, len(tx.Inputs)),
		Outputs:  make([]OutputResult, 0, len(tx.Outputs)),
	}
	for _, in := range tx.Inputs {
		out.Inputs = append(out.Inputs, InputResult{
			PrevTxID:  in.PrevOut.TxID.String(),
			PrevVout:  in.PrevOut.Vout,
			ScriptSig: hex.EncodeToString(in.ScriptSig),
			Sequence:  in.Sequence,
		})
	}
	for _, o := range tx.Outputs {
		out.Outputs = append(out.Outputs, OutputResult{
			Value:        o.Value,
			ScriptPubKey: hex.EncodeToString(o.ScriptPubKey),
		})
	}
	return out
}

func renderBlock(b *wire.Block, height uint32) BlockResult {
	txs := make([]TransactionResult, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		txs = append(txs, renderTransaction(tx))
	}
	return BlockResult{Header: renderHeader(&b.Header, height), Transactions: txs}
}

func renderSwap(h *htlc.HTLC) SwapResult {
	return SwapResult{
		ID:              h.ID.String(),
		State:           string(h.State()),
		HashLock:        h.HashLock.String(),
		AbsoluteTimeout: h.TimeLock.AbsoluteTimeout,
		GracePeriod:     h.TimeLock.GracePeriod,
		Amount:          h.Amount,
	}
}

// compactDifficulty expresses a compact-encoded target as a multiple of
// the network's loosest allowed target, the conventional "difficulty"
// figure: powLimit / target.
func compactDifficulty(target, powLimit *big.Int) float64 {
	if target.Sign() <= 0 {
		return 0
	}
	ratio := new(big.Rat).SetFrac(powLimit, target)
	f, _ := ratio.Float64()
	return f
}

// GetInfo answers getinfo.
func (s *Server) GetInfo() InfoResult {
	height := s.Chain.Height()
	best := s.Chain.Tip()
	var bestHash string
	if best != nil {
		bestHash = best.Hash.String()
	}
	peers := 0
	if s.Peers != nil {
		peers = s.Peers.ConnectionCounts().Total
	}
	mempoolLen := 0
	if s.Mempool != nil {
		mempoolLen = s.Mempool.Len()
	}
	return InfoResult{
		Version:    s.Version,
		Network:    s.Params.Name,
		Height:     height,
		BestHash:   bestHash,
		Peers:      peers,
		MempoolLen: mempoolLen,
		UptimeSecs: int64(time.Since(s.StartTime).Seconds()),
	}
}

// GetBlockchainInfo answers getblockchaininfo.
func (s *Server) GetBlockchainInfo() BlockchainInfoResult {
	tip := s.Chain.Tip()
	metrics := s.Chain.Metrics()
	result := BlockchainInfoResult{
		Network:        s.Params.Name,
		ActiveForks:    metrics.ActiveForks,
		MaxForkLength:  metrics.MaxForkLength,
		ReorgCount:     metrics.ReorgCount,
		RejectedReorgs: metrics.RejectedReorgs,
	}
	if tip != nil {
		result.Height = tip.Height
		result.BestHash = tip.Hash.String()
		target := chainhash.CompactToBig(tip.Bits)
		result.Difficulty = compactDifficulty(target, s.Params.PowLimit)
	}
	return result
}

// GetBlockByHash answers getblock(hash).
func (s *Server) GetBlockByHash(hashHex string) (BlockResult, error) {
	hash, err := parseHash(hashHex)
	if err != nil {
		return BlockResult{}, err
	}
	node, ok := s.Chain.Node(hash)
	if !ok || node.Block == nil {
		return BlockResult{}, notFound(fmt.Sprintf("block %s", hashHex))
	}
	return renderBlock(node.Block, node.Height), nil
}

// GetBlockByHeight answers getblock(height).
func (s *Server) GetBlockByHeight(height uint32) (BlockResult, error) {
	node, ok := s.Chain.NodeAtHeight(height)
	if !ok || node.Block == nil {
		return BlockResult{}, notFound(fmt.Sprintf("block at height %d", height))
	}
	return renderBlock(node.Block, node.Height), nil
}

// GetBlockHeader answers getblockheader(hash).
func (s *Server) GetBlockHeader(hashHex string) (HeaderResult, error) {
	hash, err := parseHash(hashHex)
	if err != nil {
		return HeaderResult{}, err
	}
	node, ok := s.Chain.Node(hash)
	if !ok {
		return HeaderResult{}, notFound(fmt.Sprintf("header %s", hashHex))
	}
	return renderHeader(&node.Block.Header, node.Height), nil
}

// GetTransaction answers gettransaction(txid), searching the mempool
// first and falling back to the chain-indexed block containing txid is
// out of scope (no transaction index is maintained; callers looking up a
// confirmed transaction must go through getblock).
func (s *Server) GetTransaction(txidHex string) (TransactionResult, error) {
	txid, err := parseHash(txidHex)
	if err != nil {
		return TransactionResult{}, err
	}
	entry, ok := s.Mempool.Get(txid)
	if !ok {
		return TransactionResult{}, notFound(fmt.Sprintf("transaction %s in mempool", txidHex))
	}
	return renderTransaction(entry.Tx), nil
}

// GetRawMempool answers getrawmempool.
func (s *Server) GetRawMempool(now uint64) []MempoolEntryResult {
	entries := s.Mempool.GetSorted(now)
	out := make([]MempoolEntryResult, 0, len(entries))
	for _, e := range entries {
		out = append(out, MempoolEntryResult{
			TxID:          e.TxID.String(),
			FeeRate:       e.FeeRate,
			Size:          e.Size,
			InsertionTime: e.InsertionTime,
			Replaceable:   e.Replaceable,
		})
	}
	return out
}

// GetMempoolInfo answers getmempoolinfo.
func (s *Server) GetMempoolInfo() MempoolInfoResult {
	return MempoolInfoResult{
		Size:       s.Mempool.Len(),
		Bytes:      s.Mempool.SizeInBytes(),
		MaxSize:    s.Mempool.MaxSize(),
		MinFeeRate: s.Mempool.MinFeeRate(),
	}
}

// SendRawTransaction answers sendrawtransaction(bytes).
func (s *Server) SendRawTransaction(raw []byte, feeRate float64, replaceable bool, now uint64) (string, error) {
	tx, err := wire.DeserializeTransaction(raw)
	if err != nil {
		return "", err
	}
	if err := validate.CheckTransactionSanity(tx); err != nil {
		return "", err
	}
	if err := s.Mempool.Add(tx, feeRate, replaceable, now); err != nil {
		return "", err
	}
	return tx.TxID().String(), nil
}

// SubmitBlock answers submitblock(bytes).
func (s *Server) SubmitBlock(raw []byte, now uint64) error {
	block, err := wire.DeserializeBlock(raw)
	if err != nil {
		return err
	}
	return s.Chain.AcceptBlock(block, now)
}

// GetPeerInfo answers getpeerinfo.
func (s *Server) GetPeerInfo() []PeerResult {
	peers := s.Peers.ListPeers()
	out := make([]PeerResult, 0, len(peers))
	for _, p := range peers {
		out = append(out, PeerResult{ID: p.ID, Inbound: p.Inbound, Trusted: p.Trusted, Score: p.Score})
	}
	return out
}

// GetConnectionCount answers getconnectioncount.
func (s *Server) GetConnectionCount() ConnectionCountResult {
	c := s.Peers.ConnectionCounts()
	return ConnectionCountResult{Inbound: c.Inbound, Outbound: c.Outbound, Total: c.Total}
}

// GetNetworkInfo answers getnetworkinfo.
func (s *Server) GetNetworkInfo() NetworkInfoResult {
	return NetworkInfoResult{Network: s.Params.Name, ConnectionCounts: s.GetConnectionCount()}
}

// GetMiningInfo answers getmininginfo.
func (s *Server) GetMiningInfo() MiningInfoResult {
	tip := s.Chain.Tip()
	info := MiningInfoResult{MempoolSize: s.Mempool.Len()}
	if tip != nil {
		info.Height = tip.Height
		info.Bits = tip.Bits
		info.Difficulty = compactDifficulty(chainhash.CompactToBig(tip.Bits), s.Params.PowLimit)
	}
	return info
}

// GetBlockTemplate answers getblocktemplate.
func (s *Server) GetBlockTemplate(now uint64) (BlockTemplateResult, error) {
	tmpl, err := s.Generator.NewBlockTemplate(s.RewardAddress, s.TreasuryAddress, now)
	if err != nil {
		return BlockTemplateResult{}, err
	}
	txs := make([]TransactionResult, 0, len(tmpl.Block.Transactions))
	for _, tx := range tmpl.Block.Transactions {
		txs = append(txs, renderTransaction(tx))
	}
	return BlockTemplateResult{
		Header:       renderHeader(&tmpl.Block.Header, tmpl.Height),
		Height:       tmpl.Height,
		Transactions: txs,
		TotalFees:    tmpl.TotalFees,
	}, nil
}

// InitiateSwapParams is the request body for initiate_swap.
type InitiateSwapParams struct {
	HashLockHex     string `json:"hashLock"`
	AbsoluteTimeout uint64 `json:"absoluteTimeout"`
	GracePeriod     uint64 `json:"gracePeriod"`
	Amount          uint64 `json:"amount"`
	Chain           string `json:"chain"`
	SenderScheme    string `json:"senderScheme"`
	SenderKeyHex    string `json:"senderKey"`
	RecipientScheme string `json:"recipientScheme"`
	RecipientKeyHex string `json:"recipientKey"`
}

// InitiateSwap answers initiate_swap(params).
func (s *Server) InitiateSwap(p InitiateSwapParams) (SwapResult, error) {
	hashLock, err := parseHash(p.HashLockHex)
	if err != nil {
		return SwapResult{}, err
	}
	senderScheme, err := crypto.ParseScheme(p.SenderScheme)
	if err != nil {
		return SwapResult{}, err
	}
	recipientScheme, err := crypto.ParseScheme(p.RecipientScheme)
	if err != nil {
		return SwapResult{}, err
	}
	senderKey, err := hex.DecodeString(p.SenderKeyHex)
	if err != nil {
		return SwapResult{}, fmt.Errorf("rpc: invalid sender key hex: %w", err)
	}
	recipientKey, err := hex.DecodeString(p.RecipientKeyHex)
	if err != nil {
		return SwapResult{}, fmt.Errorf("rpc: invalid recipient key hex: %w", err)
	}

	h, err := htlc.New(
		uuid.New(),
		hashLock,
		htlc.TimeLock{AbsoluteTimeout: p.AbsoluteTimeout, GracePeriod: p.GracePeriod},
		p.Amount,
		crypto.PublicKey{Scheme: senderScheme, Raw: senderKey},
		crypto.PublicKey{Scheme: recipientScheme, Raw: recipientKey},
	)
	if err != nil {
		return SwapResult{}, err
	}
	if err := s.Monitor.AddSwap(h, p.Chain, nil); err != nil {
		return SwapResult{}, err
	}
	return renderSwap(h), nil
}

// GetSwapStatus answers get_swap_status(id).
func (s *Server) GetSwapStatus(idStr string) (SwapResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return SwapResult{}, fmt.Errorf("rpc: invalid swap id: %w", err)
	}
	h, ok := s.Monitor.Swap(id)
	if !ok {
		return SwapResult{}, htlc.ErrSwapNotFound
	}
	return renderSwap(h), nil
}

// ClaimSwap answers claim_swap(id, preimage).
func (s *Server) ClaimSwap(idStr, preimageHex, sigHex, sigScheme string, currentHeight uint64) (SwapResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return SwapResult{}, fmt.Errorf("rpc: invalid swap id: %w", err)
	}
	h, ok := s.Monitor.Swap(id)
	if !ok {
		return SwapResult{}, htlc.ErrSwapNotFound
	}
	preimageBytes, err := hex.DecodeString(preimageHex)
	if err != nil || len(preimageBytes) != 32 {
		return SwapResult{}, fmt.Errorf("rpc: preimage must be 32 bytes of hex")
	}
	var preimage [32]byte
	copy(preimage[:], preimageBytes)

	sig, err := decodeSignature(sigScheme, sigHex)
	if err != nil {
		return SwapResult{}, err
	}
	if err := h.Claim(context.Background(), preimage, sig, currentHeight); err != nil {
		return SwapResult{}, err
	}
	return renderSwap(h), nil
}

// RefundSwap answers refund_swap(id).
func (s *Server) RefundSwap(idStr, sigHex, sigScheme string, currentHeight uint64) (SwapResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return SwapResult{}, fmt.Errorf("rpc: invalid swap id: %w", err)
	}
	h, ok := s.Monitor.Swap(id)
	if !ok {
		return SwapResult{}, htlc.ErrSwapNotFound
	}
	sig, err := decodeSignature(sigScheme, sigHex)
	if err != nil {
		return SwapResult{}, err
	}
	if err := h.Refund(context.Background(), sig, currentHeight); err != nil {
		return SwapResult{}, err
	}
	return renderSwap(h), nil
}

// ListSwaps answers list_swaps(filter). An empty filter matches every
// tracked swap; a non-empty one matches only swaps in that state.
func (s *Server) ListSwaps(stateFilter string) []SwapResult {
	all := s.Monitor.AllSwaps()
	out := make([]SwapResult, 0, len(all))
	for _, h := range all {
		if stateFilter != "" && string(h.State()) != stateFilter {
			continue
		}
		out = append(out, renderSwap(h))
	}
	return out
}

// GetSwapEvents answers get_swap_events(id) by opening a fresh
// subscription and draining whatever it holds at that moment. A fresh
// subscription receives only events published after it was opened, so
// the result holds only events for id published during the drain, usually
// none; events published before the call are not returned.
func (s *Server) GetSwapEvents(idStr string, buffer int) ([]SwapEventResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("rpc: invalid swap id: %w", err)
	}
	if _, ok := s.Monitor.Swap(id); !ok {
		return nil, htlc.ErrSwapNotFound
	}
	ch := s.Monitor.Events(buffer)
	var out []SwapEventResult
	for {
		select {
		case e := <-ch:
			if e.SwapID == id {
				out = append(out, SwapEventResult{Type: string(e.Type), SwapID: e.SwapID.String()})
			}
		default:
			return out, nil
		}
	}
}

// Liveness always reports true once the process is running.
func (s *Server) Liveness() bool { return true }

// Readiness requires a synced chain, at least MinPeerCount peers, and
// healthy storage.
func (s *Server) Readiness() bool {
	if s.Sync != nil && !s.Sync.Synced() {
		return false
	}
	if s.Peers != nil && s.Peers.ConnectionCounts().Total < MinPeerCount {
		return false
	}
	if s.BlockStore != nil && !s.BlockStore.Healthy() {
		return false
	}
	return true
}

func parseHash(hexStr string) (chainhash.Hash, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil || len(raw) != chainhash.HashSize {
		return chainhash.Hash{}, fmt.Errorf("rpc: invalid hash %q", hexStr)
	}
	var h chainhash.Hash
	copy(h[:], raw)
	return h, nil
}

func decodeSignature(schemeName, sigHex string) (crypto.Signature, error) {
	scheme, err := crypto.ParseScheme(schemeName)
	if err != nil {
		return crypto.Signature{}, err
	}
	raw, err := hex.DecodeString(sigHex)
	if err != nil {
		return crypto.Signature{}, fmt.Errorf("rpc: invalid signature hex: %w", err)
	}
	return crypto.Signature{Scheme: scheme, Raw: raw}, nil
}
