package rpc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/supernova-chain/supernova/internal/supernovaerr"
)

// request is the envelope every JSON RPC call over HTTP arrives in: a
// method name plus a method-specific params object, decoded per-method
// below rather than through reflection.
type request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// Handler adapts Server to net/http: POST / with a request envelope
// dispatches to the matching Server method; GET /livez and GET /readyz
// serve the health endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", s.handleLiveness)
	mux.HandleFunc("/readyz", s.handleReadiness)
	mux.HandleFunc("/", s.handleRPC)
	return mux
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.Readiness() {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, supernovaerr.Envelope{Code: 400, Message: "method must be POST"})
		return
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, supernovaerr.Envelope{Code: 400, Message: "invalid request body", Details: err.Error()})
		return
	}

	result, err := s.dispatch(req.Method, req.Params)
	if err != nil {
		switch err.(type) {
		case *methodNotFoundError:
			writeError(w, supernovaerr.Envelope{Code: 404, Message: "unknown method", Details: err.Error()})
		case *notFoundError:
			writeError(w, supernovaerr.Envelope{Code: 404, Message: "not found", Details: err.Error()})
		default:
			writeError(w, supernovaerr.Wrap(err))
		}
		return
	}
	writeResult(w, result)
}

func writeResult(w http.ResponseWriter, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}

func writeError(w http.ResponseWriter, env supernovaerr.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	if env.Code < 100 || env.Code > 599 {
		env.Code = http.StatusInternalServerError
	}
	w.WriteHeader(env.Code)
	_ = json.NewEncoder(w).Encode(env)
}

func nowUnix() uint64 { return uint64(time.Now().Unix()) }

// dispatch decodes req.Params for method and calls the matching Server
// method, the same shape daglabs-btcd's rpcserver.go uses for its own
// handler table, keyed by string method name instead of a protobuf
// service method.
func (s *Server) dispatch(method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case "getinfo":
		return s.GetInfo(), nil
	case "getblockchaininfo":
		return s.GetBlockchainInfo(), nil
	case "getblock":
		var p struct {
			Hash   string  `json:"hash"`
			Height *uint32 `json:"height"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Height != nil {
			return s.GetBlockByHeight(*p.Height)
		}
		return s.GetBlockByHash(p.Hash)
	case "getblockheader":
		var p struct {
			Hash string `json:"hash"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.GetBlockHeader(p.Hash)
	case "gettransaction":
		var p struct {
			TxID string `json:"txid"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.GetTransaction(p.TxID)
	case "getrawmempool":
		return s.GetRawMempool(nowUnix()), nil
	case "getmempoolinfo":
		return s.GetMempoolInfo(), nil
	case "sendrawtransaction":
		var p struct {
			Hex         string  `json:"hex"`
			FeeRate     float64 `json:"feeRate"`
			Replaceable bool    `json:"replaceable"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		raw, err := decodeHex(p.Hex)
		if err != nil {
			return nil, err
		}
		txid, err := s.SendRawTransaction(raw, p.FeeRate, p.Replaceable, nowUnix())
		if err != nil {
			return nil, err
		}
		return map[string]string{"txid": txid}, nil
	case "submitblock":
		var p struct {
			Hex string `json:"hex"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		raw, err := decodeHex(p.Hex)
		if err != nil {
			return nil, err
		}
		if err := s.SubmitBlock(raw, nowUnix()); err != nil {
			return nil, err
		}
		return map[string]bool{"accepted": true}, nil
	case "getpeerinfo":
		return s.GetPeerInfo(), nil
	case "getconnectioncount":
		return s.GetConnectionCount(), nil
	case "getnetworkinfo":
		return s.GetNetworkInfo(), nil
	case "getmininginfo":
		return s.GetMiningInfo(), nil
	case "getblocktemplate":
		return s.GetBlockTemplate(nowUnix())
	case "initiate_swap":
		var p InitiateSwapParams
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.InitiateSwap(p)
	case "get_swap_status":
		var p struct {
			ID string `json:"id"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.GetSwapStatus(p.ID)
	case "claim_swap":
		var p struct {
			ID        string `json:"id"`
			Preimage  string `json:"preimage"`
			Signature string `json:"signature"`
			Scheme    string `json:"scheme"`
			Height    uint64 `json:"height"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.ClaimSwap(p.ID, p.Preimage, p.Signature, p.Scheme, p.Height)
	case "refund_swap":
		var p struct {
			ID        string `json:"id"`
			Signature string `json:"signature"`
			Scheme    string `json:"scheme"`
			Height    uint64 `json:"height"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.RefundSwap(p.ID, p.Signature, p.Scheme, p.Height)
	case "list_swaps":
		var p struct {
			State string `json:"state"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return s.ListSwaps(p.State), nil
	case "get_swap_events":
		var p struct {
			ID     string `json:"id"`
			Buffer int    `json:"buffer"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Buffer <= 0 {
			p.Buffer = 16
		}
		return s.GetSwapEvents(p.ID, p.Buffer)
	default:
		return nil, unknownMethodError(method)
	}
}

func decodeParams(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
