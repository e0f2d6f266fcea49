package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()

	app.Name = "lnaddress-cli"
	app.Usage = "Cli for checking a lightning address server"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "network",
			Value: "mainnet",
			Usage: "the network invoices are expected on",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: 10 * time.Second,
			Usage: "timeout of each http request",
		},
	}
	app.Commands = append(app.Commands, probeCommand)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[lnaddress-cli] %v\n", err)
	os.Exit(1)
}

func get(client *http.Client, url string, out interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("GET request error: %w", err)
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned %d: %s", url,
			resp.StatusCode, body)
	}

	// LNURL services report errors in the body of a 200 response.
	var lnurlErr struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &lnurlErr); err == nil &&
		lnurlErr.Status == "ERROR" {

		return fmt.Errorf("service error: %s", lnurlErr.Reason)
	}

	return json.Unmarshal(body, out)
}
