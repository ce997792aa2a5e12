package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

const (
	version = "0.1.0"

	// SEC allows at most 10 requests/second; keep a polite delay between
	// consecutive fetches.
	rateLimit = 100 * time.Millisecond

	// secEmailEnvVar is the environment variable name for the SEC contact
	// email.
	secEmailEnvVar = "SEC_EMAIL"
)

var lastRequestTime time.Time

// getSecEmail retrieves the contact email from the environment.
func getSecEmail() (string, error) {
	email := os.Getenv(secEmailEnvVar)
	if email == "" {
		return "", fmt.Errorf("SEC email required: set %s environment variable or use --email flag", secEmailEnvVar)
	}

	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return "", fmt.Errorf("invalid email format: %s", email)
	}
	if strings.HasSuffix(email, "example.com") {
		return "", fmt.Errorf("use a real email address, not example.com: %s", email)
	}
	return email, nil
}

// buildUserAgent creates the User-Agent string SEC requires for automated
// access.
func buildUserAgent(email string) string {
	return fmt.Sprintf("form4feed/%s (%s)", version, email)
}

// fetchFiling fetches a filing document from the SEC by URL with the
// required User-Agent header and the politeness delay.
func fetchFiling(url string, email string) ([]byte, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required for SEC requests")
	}

	if !lastRequestTime.IsZero() {
		elapsed := time.Since(lastRequestTime)
		if elapsed < rateLimit {
			time.Sleep(rateLimit - elapsed)
		}
	}

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", buildUserAgent(email))

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	lastRequestTime = time.Now()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SEC returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

// accessionFromURL parses SEC EDGAR archive URLs to recover the accession
// number. Example:
// https://www.sec.gov/Archives/edgar/data/1631574/000119312525314736/ownership.xml
func accessionFromURL(url string) (string, error) {
	pattern := regexp.MustCompile(`/edgar/data/\d+/(\d+)/`)
	matches := pattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("could not extract accession number from URL")
	}

	// Format accession number: 0001193125-25-314736
	accession := matches[1]
	if len(accession) == 18 {
		accession = accession[:10] + "-" + accession[10:12] + "-" + accession[12:]
	}
	return accession, nil
}
