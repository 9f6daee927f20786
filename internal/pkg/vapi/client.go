package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/caredial/caredial/internal/pkg/utils"
)

// Client places calls using the vapi telephony API
type Client struct {
	httpclient    *http.Client
	url           string
	key           string
	assistantID   string
	phoneNumberID string
	timeout       time.Duration
}

// NewClient creates a telephony client
func NewClient(url, key, assistantID, phoneNumberID string) (*Client, error) {
	res := Client{}
	if url == "" {
		return nil, fmt.Errorf("no url")
	}
	if !strings.HasPrefix(url, "http") {
		return nil, fmt.Errorf("no http in url")
	}
	if key == "" {
		return nil, fmt.Errorf("no api key")
	}
	if assistantID == "" {
		return nil, fmt.Errorf("no assistantID")
	}
	res.url = url
	res.key = key
	res.assistantID = assistantID
	res.phoneNumberID = phoneNumberID
	res.timeout = time.Second * 30
	res.httpclient = newHTTPClient()
	return &res, nil
}

type callRequest struct {
	AssistantID        string              `json:"assistantId"`
	PhoneNumberID      string              `json:"phoneNumberId,omitempty"`
	Customer           customer            `json:"customer"`
	AssistantOverrides *assistantOverrides `json:"assistantOverrides,omitempty"`
}

type customer struct {
	Number string `json:"number"`
}

type assistantOverrides struct {
	VariableValues map[string]string `json:"variableValues"`
}

type callResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Call asks the provider to place a call to phone.
// The email travels along as a correlation value for the assistant.
// Returns the provider issued call ID.
// No retries here - a failure is surfaced to the caller, who may resubmit.
func (cl *Client) Call(ctx context.Context, phone, email string) (string, error) {
	inData := callRequest{AssistantID: cl.assistantID, PhoneNumberID: cl.phoneNumberID,
		Customer: customer{Number: phone},
		AssistantOverrides: &assistantOverrides{
			VariableValues: map[string]string{"email": email}}}
	b, err := json.Marshal(inData)
	if err != nil {
		return "", fmt.Errorf("can't marshal call request: %w", err)
	}

	ctx, cancelF := context.WithTimeout(ctx, cl.timeout)
	defer cancelF()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.url+"/call", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+cl.key)
	req.Header.Set("Content-Type", "application/json")

	goapp.Log.Info().Str("url", req.URL.String()).Str("method", req.Method).Msg("call")
	resp, err := cl.httpclient.Do(req)
	if err != nil {
		return "", utils.NewErrUpstream("", fmt.Errorf("can't call: %w", err))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
		_ = resp.Body.Close()
	}()
	br, err := io.ReadAll(io.LimitReader(resp.Body, 100000))
	if err != nil {
		return "", utils.NewErrUpstream("", fmt.Errorf("can't read body: %w", err))
	}
	var respData callResponse
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = json.Unmarshal(br, &respData)
		goapp.Log.Error().Int("code", resp.StatusCode).Str("response", goapp.Sanitize(string(br))).Msg("provider call failed")
		return "", utils.NewErrUpstream(respData.Message,
			fmt.Errorf("can't invoke '%s': returned code %d", req.URL.String(), resp.StatusCode))
	}
	if err := json.Unmarshal(br, &respData); err != nil {
		return "", utils.NewErrUpstream("", fmt.Errorf("can't decode response: %w", err))
	}
	if respData.ID == "" {
		return "", utils.NewErrUpstream("", fmt.Errorf("can't get call ID from response"))
	}
	return respData.ID, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Transport: newTransport()}
}

func newTransport() http.RoundTripper {
	// default roundripper is not well suited for our case
	// it has just 2 idle connections per host, so try to tune a bit
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 100
	res.MaxIdleConns = 50
	res.MaxIdleConnsPerHost = 50
	res.IdleConnTimeout = 90 * time.Second
	return res
}
