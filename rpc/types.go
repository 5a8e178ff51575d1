package rpc


// InfoResult answers getinfo.
type InfoResult struct {
	Version    string `json:"version"`
	Network    string `json:"network"`
	Height     uint32 `json:"height"`
	BestHash   string `json:"bestHash"`
	Peers      int    `json:"peers"`
	MempoolLen int    `json:"mempoolSize"`
	UptimeSecs int64  `json:"uptimeSeconds"`
}

// BlockchainInfoResult answers getblockchaininfo.
type BlockchainInfoResult struct {
	Network        string  `json:"network"`
	Height         uint32  `json:"height"`
	BestHash       string  `json:"bestHash"`
	Difficulty     float64 `json:"difficulty"`
	ActiveForks    int     `json:"activeForks"`
	MaxForkLength  uint32  `json:"maxForkLength"`
	ReorgCount     uint64  `json:"reorgCount"`
	RejectedReorgs uint64  `json:"rejectedReorgs"`
}

// OutputResult is one transaction output in RPC-rendered form.
type OutputResult struct {
	Value        uint64 `json:"value"`
	ScriptPubKey string `json:"scriptPubKeyHex"`
}

// InputResult is one transaction input in RPC-rendered form.
type InputResult struct {
	PrevTxID  string `json:"prevTxId"`
	PrevVout  uint32 `json:"prevVout"`
	ScriptSig string `json:"scriptSigHex"`
	Sequence  uint32 `json:"sequence"`
}

// TransactionResult renders a wire.Transaction for gettransaction and
// within BlockResult.
type TransactionResult struct {
	TxID     string         `json:"txid"`
	Version  uint32         `json:"version"`
	LockTime uint32         `json:"lockTime"`
	Inputs   []InputResult  `json:"inputs"`
	Outputs  []OutputResult `json:"outputs"`
}

// HeaderResult renders a wire.BlockHeader for getblockheader and within
// BlockResult.
type HeaderResult struct {
	Hash       string `json:"hash"`
	Version    uint32 `json:"version"`
	PrevHash   string `json:"prevHash"`
	MerkleRoot string `json:"merkleRoot"`
	Timestamp  uint64 `json:"timestamp"`
	Bits       uint32 `json:"bits"`
	Nonce      uint32 `json:"nonce"`
	Height     uint32 `json:"height"`
}

// BlockResult renders a wire.Block for getblock.
type BlockResult struct {
	Header       HeaderResult         `json:"header"`
	Transactions []TransactionResult  `json:"transactions"`
}

// MempoolEntryResult is one entry rendered for getrawmempool.
type MempoolEntryResult struct {
	TxID          string  `json:"txid"`
	FeeRate       float64 `json:"feeRate"`
	Size          uint64  `json:"size"`
	InsertionTime uint64  `json:"insertionTime"`
	Replaceable   bool    `json:"replaceable"`
}

// MempoolInfoResult answers getmempoolinfo.
type MempoolInfoResult struct {
	Size        int    `json:"size"`
	Bytes       uint64 `json:"bytes"`
	MaxSize     int    `json:"maxSize"`
	MinFeeRate  float64 `json:"minFeeRate"`
}

// PeerResult is one entry rendered for getpeerinfo.
type PeerResult struct {
	ID      string `json:"id"`
	Inbound bool   `json:"inbound"`
	Trusted bool   `json:"trusted"`
	Score   int    `json:"score"`
}

// ConnectionCountResult answers getconnectioncount.
type ConnectionCountResult struct {
	Inbound  int `json:"inbound"`
	Outbound int `json:"outbound"`
	Total    int `json:"total"`
}

// NetworkInfoResult answers getnetworkinfo.
type NetworkInfoResult struct {
	Network          string `json:"network"`
	ConnectionCounts ConnectionCountResult `json:"connections"`
}

// MiningInfoResult answers getmininginfo.
type MiningInfoResult struct {
	Height       uint32  `json:"height"`
	Bits         uint32  `json:"bits"`
	Difficulty   float64 `json:"difficulty"`
	MempoolSize  int     `json:"mempoolSize"`
	NetworkHashRateEstimate float64 `json:"networkHashRateEstimate"`
}

// BlockTemplateResult answers getblocktemplate.
type BlockTemplateResult struct {
	Header       HeaderResult        `json:"header"`
	Height       uint32              `json:"height"`
	Transactions []TransactionResult `json:"transactions"`
	TotalFees    uint64              `json:"totalFees"`
}

// SwapResult renders an htlc.HTLC for the swap RPC family.
type SwapResult struct {
	ID              string `json:"id"`
	State           string `json:"state"`
	HashLock        string `json:"hashLock"`
	AbsoluteTimeout uint64 `json:"absoluteTimeout"`
	GracePeriod     uint64 `json:"gracePeriod"`
	Amount          uint64 `json:"amount"`
}

// SwapEventResult renders an htlc.Event.
type SwapEventResult struct {
	Type   string `json:"type"`
	SwapID string `json:"swapId"`
}
