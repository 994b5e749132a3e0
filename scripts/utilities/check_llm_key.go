//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// This script verifies that an OpenAI API key works by making a minimal
// one-token completion call, and prints the rate limit headers from the
// response. The service itself never stores keys, so the key comes from
// the environment.

func main() {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY not set")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-3.5-turbo"
	}

	fmt.Println("Checking OpenAI API key...")
	fmt.Println("Model:", model)
	fmt.Println()

	headers, err := checkKey(apiKey, model)
	if err != nil {
		log.Fatalf("Key check failed: %v", err)
	}

	fmt.Println("✓ Key accepted")
	fmt.Println()
	fmt.Println("Rate Limit Status:")
	fmt.Println("==================")

	if val := headers["X-Ratelimit-Limit-Requests"]; val != "" {
		fmt.Printf("Request Limit: %s requests\n", val)
	}
	if val := headers["X-Ratelimit-Remaining-Requests"]; val != "" {
		fmt.Printf("Requests Remaining: %s\n", val)
	}
	if val := headers["X-Ratelimit-Reset-Requests"]; val != "" {
		fmt.Printf("Request Limit Resets In: %s\n", val)
	}

	fmt.Println()

	if val := headers["X-Ratelimit-Limit-Tokens"]; val != "" {
		fmt.Printf("Token Limit: %s tokens\n", val)
	}
	if val := headers["X-Ratelimit-Remaining-Tokens"]; val != "" {
		fmt.Printf("Tokens Remaining: %s\n", val)
	}
	if val := headers["X-Ratelimit-Reset-Tokens"]; val != "" {
		fmt.Printf("Token Limit Resets In: %s\n", val)
	}
}

func checkKey(apiKey, model string) (map[string]string, error) {
	reqBody := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": "Hi"},
		},
		"max_tokens": 1,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", "https://api.openai.com/v1/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	headers := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != 200 {
		return headers, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	return headers, nil
}
