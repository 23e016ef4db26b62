package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"demand-service/config"
	"demand-service/internal/identity"
	"demand-service/internal/util"
)

// Terminal client for the demand service. The voter id is persisted next to
// the binary so repeat runs on one machine count as the same voter.

const voterIDHeader = "X-Voter-ID"

func main() {
	server := flag.String("server", "http://localhost:8080", "demand service base URL")
	search := flag.String("search", "", "search term for list")
	category := flag.String("category", "All", "category filter for list")
	page := flag.Int("page", 1, "page number for list")
	vote := flag.String("vote", "", "product id to vote for")
	request := flag.String("request", "", "product name to request")
	requestCategory := flag.String("request-category", "", "category for the requested product")
	flag.Parse()

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	voterID := identity.NewProvider(cfg.Catalog.VoterIDPath).GetOrCreateVoterID()

	client := &apiClient{
		base:    *server,
		voterID: voterID,
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	switch {
	case *vote != "":
		client.castVote(*vote)
	case *request != "":
		client.requestProduct(*request, *requestCategory)
	default:
		client.listProducts(*search, *category, *page)
	}
}

type apiClient struct {
	base    string
	voterID string
	http    *http.Client
}

func (c *apiClient) do(method, path string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("Failed to encode request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set(voterIDHeader, c.voterID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}
	return resp.StatusCode, data
}

func (c *apiClient) listProducts(search, category string, page int) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	query.Set("category", category)
	query.Set("page", strconv.Itoa(page))

	path := "/api/v1/products?" + query.Encode()
	status, data := c.do(http.MethodGet, path, nil)
	if status != http.StatusOK {
		log.Fatalf("List failed with status %d: %s", status, data)
	}
	printJSON(data)
}

func (c *apiClient) castVote(productID string) {
	status, data := c.do(http.MethodPost, "/api/v1/products/"+productID+"/vote", nil)
	switch status {
	case http.StatusCreated:
		fmt.Println("Vote recorded")
	case http.StatusConflict:
		fmt.Println("Already voted for this product")
	default:
		log.Fatalf("Vote failed with status %d: %s", status, data)
	}
	printJSON(data)
}

func (c *apiClient) requestProduct(name, category string) {
	body := map[string]string{"name": name}
	if category != "" {
		body["category"] = category
	}
	status, data := c.do(http.MethodPost, "/api/v1/products", body)
	if status != http.StatusCreated {
		log.Fatalf("Product request failed with status %d: %s", status, data)
	}
	fmt.Println("Product requested")
	printJSON(data)
}

func printJSON(data []byte) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		os.Stdout.Write(data)
		fmt.Println()
		return
	}
	fmt.Println(pretty.String())
}
