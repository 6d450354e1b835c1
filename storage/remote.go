package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultPath is the path the ingestion endpoint accepts payloads on.
const DefaultPath = "/adc_samples"

// RemoteStore implements Appender by posting each payload to an adcsink
// server. It can be used to relay payloads to another instance, or to send
// recordings from the command line.
type RemoteStore struct {
	url    string
	client *http.Client
}

// NewRemoteStore returns a RemoteStore posting to the default path at the given
// address, in host:port form. An address starting with "http://" or
// "https://" is taken as the full URL.
func NewRemoteStore(address string) *RemoteStore {
	url := address
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = fmt.Sprintf("http://%s%s", address, DefaultPath)
	}
	return &RemoteStore{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *RemoteStore) Append(p []byte) (err error) {
	request, err := http.NewRequest(http.MethodPost, r.url, bytes.NewReader(p))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/octet-stream")
	response, err := r.client.Do(request)
	if response != nil && response.Body != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}
	if err != nil {
		return err
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	if response.StatusCode != http.StatusOK {
		if len(body) == 0 {
			return errors.New(response.Status)
		}
		return fmt.Errorf("%s: %s", response.Status, bytes.TrimSpace(body))
	}
	return nil
}
