package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolwatch/internal/model"
)

// Client fetches verified contract interfaces from an Etherscan-family
// block explorer (BaseScan on Base).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// FetchContractABI loads and parses the verified ABI for a contract.
// Unverified or unknown contracts surface as ErrMetadataUnavailable.
func (c *Client) FetchContractABI(ctx context.Context, address common.Address) (abi.ABI, error) {
	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getabi")
	params.Set("address", address.Hex())
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}

	endpoint := c.baseURL + "/api?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("build abi request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("%w: fetch abi for %s: %v", model.ErrMetadataUnavailable, address.Hex(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return abi.ABI{}, fmt.Errorf("%w: explorer returned %d for %s", model.ErrMetadataUnavailable, resp.StatusCode, address.Hex())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read abi response: %w", err)
	}

	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi response: %w", err)
	}
	if payload.Status != "1" {
		return abi.ABI{}, fmt.Errorf("%w: explorer error for %s: %s", model.ErrMetadataUnavailable, address.Hex(), payload.Result)
	}

	parsed, err := abi.JSON(strings.NewReader(payload.Result))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse contract abi: %w", err)
	}

	c.logger.Info("contract abi loaded",
		zap.String("address", address.Hex()),
		zap.Int("events", len(parsed.Events)),
	)
	return parsed, nil
}
