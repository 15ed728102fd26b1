package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/iho/bookd/internal/adapter/http/dto"
)

var (
	baseURL string
	timeout time.Duration
	token   string
)

const maxRetries = 3

func main() {
	rootCmd := &cobra.Command{
		Use:   "bookd-cli",
		Short: "bookd CLI tool",
		Long:  `A command line interface for interacting with the bookd API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the bookd API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token for authenticated servers")

	// Account commands
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	var listPrefix string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List open accounts",
		Run: func(cmd *cobra.Command, args []string) {
			listAccounts(listPrefix)
		},
	}
	listCmd.Flags().StringVar(&listPrefix, "prefix", "", "Only accounts under this prefix")

	treeCmd := &cobra.Command{
		Use:   "tree [prefix]",
		Short: "Show the account hierarchy with rolled-up balances",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			prefix := ""
			if len(args) > 0 {
				prefix = args[0]
			}
			showTree(prefix)
		},
	}

	accountsCmd.AddCommand(listCmd, treeCmd)
	rootCmd.AddCommand(accountsCmd)

	balanceCmd := &cobra.Command{
		Use:   "balance <account> <commodity>",
		Short: "Show one account's balance of a commodity",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			showBalance(args[0], args[1])
		},
	}
	rootCmd.AddCommand(balanceCmd)

	inventoryCmd := &cobra.Command{
		Use:   "inventory <account>",
		Short: "Show one account's lot inventory",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			showInventory(args[0])
		},
	}
	rootCmd.AddCommand(inventoryCmd)

	var submitFile string
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a transaction from a JSON file (or stdin)",
		Run: func(cmd *cobra.Command, args []string) {
			submitTransaction(submitFile)
		},
	}
	submitCmd.Flags().StringVar(&submitFile, "file", "-", "Transaction JSON file, - for stdin")
	rootCmd.AddCommand(submitCmd)

	var severity string
	diagnosticsCmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "List collected diagnostics",
		Run: func(cmd *cobra.Command, args []string) {
			showDiagnostics(severity)
		},
	}
	diagnosticsCmd.Flags().StringVar(&severity, "severity", "", "Filter by severity (error or warning)")
	rootCmd.AddCommand(diagnosticsCmd)

	var latest bool
	pricesCmd := &cobra.Command{
		Use:   "prices <base> <quote>",
		Short: "Show the price series for a commodity pair",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			showPrices(args[0], args[1], latest)
		},
	}
	pricesCmd.Flags().BoolVar(&latest, "latest", false, "Only the most recent price")
	rootCmd.AddCommand(pricesCmd)

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	finishCmd := &cobra.Command{
		Use:   "finish",
		Short: "Close the ledger and run end-of-input checks",
		Run: func(cmd *cobra.Command, args []string) {
			finishLedger()
		},
	}

	optionsCmd := &cobra.Command{
		Use:   "options",
		Short: "Show the engine options the server runs with",
		Run: func(cmd *cobra.Command, args []string) {
			showOptions()
		},
	}

	ledgerCmd.AddCommand(finishCmd, optionsCmd)
	rootCmd.AddCommand(ledgerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// doRequest performs one API call with exponential backoff on transient
// failures. Mutations stay safe to retry because submit sends an
// Idempotency-Key.
func doRequest(method, path string, body []byte, headers map[string]string) ([]byte, int, error) {
	client := &http.Client{Timeout: timeout}

	var (
		respBody   []byte
		statusCode int
		attempts   int
	)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = timeout

	err := backoff.Retry(func() error {
		req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(body) > 0 {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			attempts++
			if attempts > maxRetries {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(err)
		}
		statusCode = resp.StatusCode

		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			attempts++
			if attempts > maxRetries {
				return backoff.Permanent(fmt.Errorf("server returned %d", resp.StatusCode))
			}
			return fmt.Errorf("server returned %d", resp.StatusCode)
		}
		return nil
	}, b)

	return respBody, statusCode, err
}

// getJSON fetches path and decodes the response into out, exiting on any
// failure.
func getJSON(path string, out any) {
	body, status, err := doRequest(http.MethodGet, path, nil, nil)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	if status != http.StatusOK {
		printAPIError(status, body)
		os.Exit(1)
	}
	if err := json.Unmarshal(body, out); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}
}

func printAPIError(status int, body []byte) {
	var apiErr dto.ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		fmt.Printf("Request failed (Status: %d): %s\n", status, apiErr.Error)
		if apiErr.Message != "" {
			fmt.Printf("  %s\n", apiErr.Message)
		}
		return
	}
	fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", status, string(body))
}

func formatAmounts(amounts []dto.AmountPayload) string {
	if len(amounts) == 0 {
		return "(empty)"
	}
	var buf bytes.Buffer
	for i, a := range amounts {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s %s", a.Number, a.Commodity)
	}
	return buf.String()
}

func listAccounts(prefix string) {
	path := "/api/v1/accounts"
	if prefix != "" {
		path += "?prefix=" + prefix
	}

	var result dto.ListAccountsResponse
	getJSON(path, &result)

	for _, a := range result.Accounts {
		status := "open"
		if a.ClosedAt != nil {
			status = "closed " + a.ClosedAt.Format(dto.DateLayout)
		}
		fmt.Printf("%s  [%s]  %s\n", a.Name, status, formatAmounts(a.Balances))
	}
	fmt.Printf("Total: %d\n", result.Total)
}

func showTree(prefix string) {
	path := "/api/v1/accounts/tree"
	if prefix != "" {
		path += "?prefix=" + prefix
	}

	var result dto.AccountTreeResponse
	getJSON(path, &result)

	for _, node := range result.Accounts {
		marker := " "
		if node.Declared {
			marker = "*"
		}
		fmt.Printf("%s %s  %s\n", marker, node.Account, formatAmounts(node.Rollup))
	}
}

func showBalance(account, commodity string) {
	path := fmt.Sprintf("/api/v1/accounts/%s/balance?commodity=%s", account, commodity)

	var result dto.BalanceResponse
	getJSON(path, &result)

	fmt.Printf("%s: %s %s\n", result.Account, result.Number, result.Commodity)
}

func showInventory(account string) {
	var result dto.InventoryResponse
	getJSON(fmt.Sprintf("/api/v1/accounts/%s/inventory", account), &result)

	fmt.Printf("Inventory of %s:\n", result.Account)
	for _, p := range result.Positions {
		line := fmt.Sprintf("  %s %s", p.Units, p.Commodity)
		if p.Cost != nil && p.Cost.Number != nil {
			line += fmt.Sprintf(" {%s %s", p.Cost.Number, p.Cost.Currency)
			if p.Cost.Date != nil {
				line += ", " + p.Cost.Date.Format(dto.DateLayout)
			}
			if p.Cost.Label != "" {
				line += fmt.Sprintf(", %q", p.Cost.Label)
			}
			line += "}"
		}
		fmt.Println(line)
	}
	if len(result.Positions) == 0 {
		fmt.Println("  (empty)")
	}
}

func submitTransaction(file string) {
	var (
		payload []byte
		err     error
	)
	if file == "-" {
		payload, err = io.ReadAll(os.Stdin)
	} else {
		payload, err = os.ReadFile(file)
	}
	if err != nil {
		fmt.Printf("Error reading transaction: %v\n", err)
		os.Exit(1)
	}

	headers := map[string]string{"Idempotency-Key": ulid.Make().String()}
	body, status, err := doRequest(http.MethodPost, "/api/v1/transactions", payload, headers)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	if status != http.StatusCreated {
		printAPIError(status, body)
		os.Exit(1)
	}

	var result dto.TransactionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Booked %s on %s: %s\n", result.ID, result.Date.Format(dto.DateLayout), result.Narration)
	for _, p := range result.Postings {
		if p.Units != nil {
			fmt.Printf("  %s  %s %s\n", p.Account, p.Units.Number, p.Units.Commodity)
		}
	}
}

func showDiagnostics(severity string) {
	path := "/api/v1/diagnostics"
	if severity != "" {
		path += "?severity=" + severity
	}

	var result dto.DiagnosticsResponse
	getJSON(path, &result)

	for _, d := range result.Diagnostics {
		date := ""
		if d.Date != nil {
			date = d.Date.Format(dto.DateLayout) + " "
		}
		fmt.Printf("[%s] %s%s: %s\n", d.Severity, date, d.Kind, d.Message)
	}
	fmt.Printf("Total: %d\n", result.Total)
}

func showPrices(base, quote string, latest bool) {
	if latest {
		var point dto.PricePointResponse
		getJSON(fmt.Sprintf("/api/v1/prices/%s/%s/latest", base, quote), &point)
		fmt.Printf("%s %s/%s = %s\n", point.Date.Format(dto.DateLayout), point.Base, point.Quote, point.Rate)
		return
	}

	var result dto.PriceSeriesResponse
	getJSON(fmt.Sprintf("/api/v1/prices/%s/%s", base, quote), &result)

	for _, point := range result.Points {
		implicit := ""
		if point.Implicit {
			implicit = " (implicit)"
		}
		fmt.Printf("%s %s/%s = %s%s\n", point.Date.Format(dto.DateLayout), point.Base, point.Quote, point.Rate, implicit)
	}
}

func finishLedger() {
	body, status, err := doRequest(http.MethodPost, "/api/v1/ledger/finish", nil, nil)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	if status != http.StatusOK {
		printAPIError(status, body)
		os.Exit(1)
	}

	var result dto.DiagnosticsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if result.Total == 0 {
		fmt.Println("Ledger finished: no problems found")
		return
	}
	fmt.Printf("Ledger finished with %d problem(s):\n", result.Total)
	for _, d := range result.Diagnostics {
		fmt.Printf("[%s] %s: %s\n", d.Severity, d.Kind, d.Message)
	}
	os.Exit(1)
}

func showOptions() {
	var result dto.OptionsResponse
	getJSON("/api/v1/ledger/options", &result)

	fmt.Printf("Default booking:     %s\n", result.DefaultBooking)
	fmt.Printf("Auto-vivify:         %v\n", result.AutoVivify)
	fmt.Printf("Require commodities: %v\n", result.RequireCommodities)
	fmt.Printf("Strict prices:       %v\n", result.StrictPrices)
	fmt.Printf("Max errors:          %d\n", result.MaxErrors)
	fmt.Printf("Tolerance default:   %s\n", result.ToleranceDefault)
	for commodity, eps := range result.Tolerances {
		fmt.Printf("Tolerance %s:      %s\n", commodity, eps)
	}
}
