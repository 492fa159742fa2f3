package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"llamad/pkg/types"
)

// client is a thin HTTP wrapper over the llamad API.
type client struct {
	base string
	http *http.Client
}

func newClient(base string) *client {
	return &client{
		base: strings.TrimRight(base, "/"),
		// Generation streams indefinitely; only non-streaming calls get a
		// client-side timeout.
		http: &http.Client{},
	}
}

func (c *client) getJSON(path string, out any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) post(path string) error {
	resp, err := c.http.Post(c.base+path, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return nil
}

// generate posts a generation request and copies the response to w: token
// fragments as they stream, or the final content for non-streaming calls.
func (c *client) generate(req types.GenerateRequest, w io.Writer) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+"/v1/generate", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	if !req.Stream {
		var final types.GenerateFinal
		if err := json.NewDecoder(resp.Body).Decode(&final); err != nil {
			return err
		}
		fmt.Fprintln(w, final.Content)
		printRate(w, final)
		return nil
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		// One NDJSON line is a token fragment, the final summary, or a
		// mid-stream error payload.
		var ev struct {
			Token           *string `json:"token"`
			Done            bool    `json:"done"`
			Content         string  `json:"content"`
			TokensGenerated int     `json:"tokens_generated"`
			TokensPerSecond float64 `json:"tokens_per_second"`
			ElapsedSeconds  float64 `json:"elapsed_seconds"`
			Error           string  `json:"error"`
			Kind            string  `json:"kind"`
		}
		if err := json.Unmarshal(line, &ev); err != nil {
			return err
		}
		switch {
		case ev.Error != "":
			return fmt.Errorf("%s", ev.Error)
		case ev.Done:
			fmt.Fprintln(w)
			printRate(w, types.GenerateFinal{
				Done:            true,
				Content:         ev.Content,
				TokensGenerated: ev.TokensGenerated,
				TokensPerSecond: ev.TokensPerSecond,
				ElapsedSeconds:  ev.ElapsedSeconds,
			})
			return scanner.Err()
		case ev.Token != nil:
			fmt.Fprint(w, *ev.Token)
		}
	}
	return scanner.Err()
}

func printRate(w io.Writer, final types.GenerateFinal) {
	if final.TokensGenerated > 0 {
		fmt.Fprintf(w, "[%d tokens, %.1f tok/s, %s]\n",
			final.TokensGenerated, final.TokensPerSecond,
			(time.Duration(final.ElapsedSeconds * float64(time.Second))).Round(time.Millisecond))
	}
}

func apiError(resp *http.Response) error {
	var payload types.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		if payload.Kind != "" {
			return fmt.Errorf("%s (%s)", payload.Error, payload.Kind)
		}
		return fmt.Errorf("%s", payload.Error)
	}
	return fmt.Errorf("server returned %s", resp.Status)
}
