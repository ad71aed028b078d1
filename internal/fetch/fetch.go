// Package fetch downloads a raw observation CSV ahead of a pipeline run.
// HTTP sources retry transient failures with exponential backoff; FTP
// sources (agency archives still publish this way) are retrieved in one
// shot. The scheme of the source URL selects the transport.
package fetch

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/kavery/weatherpipe/internal/httputil"
	"github.com/kavery/weatherpipe/internal/metrics"
)

// Fetch downloads src to dest. Supported schemes: http, https, ftp.
func Fetch(src, dest string) error {
	u, err := url.Parse(src)
	if err != nil {
		return fmt.Errorf("parse source url %s: %w", src, err)
	}

	var body []byte
	switch u.Scheme {
	case "http", "https":
		body, err = fetchHTTP(src)
	case "ftp":
		body, err = fetchFTP(u)
	default:
		return fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}
	if err != nil {
		metrics.FetchesTotal.WithLabelValues(u.Scheme, "error").Inc()
		return err
	}
	metrics.FetchesTotal.WithLabelValues(u.Scheme, "ok").Inc()

	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s to %s: %w", tmp, dest, err)
	}
	return nil
}

func fetchHTTP(src string) ([]byte, error) {
	client := httputil.NewClient()

	var body []byte
	operation := func() error {
		resp, err := client.Get(src)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("fetch %s: %w", src, err))
		}
		defer resp.Body.Close()

		// Retry rate limiting and server-side failures; everything else
		// is not going to improve on a retry.
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d", src, resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body of %s: %w", src, err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return body, nil
}

func fetchFTP(u *url.URL) ([]byte, error) {
	host := u.Host
	if u.Port() == "" {
		host += ":21"
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("ftp dial %s: %w", host, err)
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return nil, fmt.Errorf("ftp login %s: %w", host, err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return nil, fmt.Errorf("ftp retr %s: %w", u.Path, err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("ftp read %s: %w", u.Path, err)
	}
	return body, nil
}
