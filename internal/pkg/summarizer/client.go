package summarizer

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
	"github.com/cenkalti/backoff/v4"
)

// Client produces summaries using a chat completion API
type Client struct {
	httpclient *http.Client
	url        string
	key        string
	model      string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewClient creates a summarizer client
func NewClient(url, key, model string) (*Client, error) {
	res := Client{}
	if url == "" {
		return nil, fmt.Errorf("no url")
	}
	if key == "" {
		return nil, fmt.Errorf("no api key")
	}
	if model == "" {
		return nil, fmt.Errorf("no model")
	}
	res.url = url
	res.key = key
	res.model = model
	res.timeout = time.Second * 50
	res.httpclient = &http.Client{}
	res.backoff = newSimpleBackoff
	return &res, nil
}

// Summarize makes a concise English consultation summary from the structured call outcome
func (cl *Client) Summarize(ctx context.Context, data map[string]string) (string, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("can't marshal structured data: %w", err)
	}
	prompt := fmt.Sprintf(`You are a medical assistant. Given this structured consultation data:
%s
Generate a concise and professional consultation summary in English.`, string(b))
	return cl.complete(ctx, prompt)
}

// Translate translates the English summary into the wanted language
func (cl *Client) Translate(ctx context.Context, text, language string) (string, error) {
	prompt := fmt.Sprintf(`Translate the following medical consultation summary to %s:
%s`, language, text)
	return cl.complete(ctx, prompt)
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

func (cl *Client) complete(ctx context.Context, prompt string) (string, error) {
	inData := completionRequest{Model: cl.model, Messages: []message{{Role: "user", Content: prompt}}}
	b, err := json.Marshal(inData)
	if err != nil {
		return "", fmt.Errorf("can't marshal completion request: %w", err)
	}

	return goapp.InvokeWithBackoff(ctx, func() (string, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, cl.timeout)
		defer cancelF()
		req, err := http.NewRequest(http.MethodPost, cl.url+"/chat/completions", bytes.NewReader(b))
		if err != nil {
			return "", false, err
		}
		req.Header.Set("Authorization", "Bearer "+cl.key)
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(ctx)
		goapp.Log.Info().Str("url", req.URL.String()).Str("method", req.Method).Msg("call")
		resp, err := cl.httpclient.Do(req)
		if err != nil {
			return "", goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
			err = fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
			return "", goapp.IsRetryableCode(resp.StatusCode), err
		}
		var respData completionResponse
		if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
			return "", goapp.IsRetryableErr(err), fmt.Errorf("can't unmarshal: %w", err)
		}
		if len(respData.Choices) == 0 {
			return "", false, fmt.Errorf("no choices in response")
		}
		res := strings.TrimSpace(respData.Choices[0].Message.Content)
		if res == "" {
			return "", false, fmt.Errorf("empty completion")
		}
		return res, false, nil
	}, cl.backoff())
}

func newSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	return backoff.WithMaxRetries(res, 3)
}
