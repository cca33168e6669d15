package internal

import (
	"strings"

	"feed-lab/contract"
)

type Config struct {
	BaseURL          string `env:"FEED_BASE_URL,required=true"`
	ContractRevision string `env:"FEED_CONTRACT_REVISION,default=current"`
	LogLevel         string `env:"LOG_LEVEL,required=true"`
}

// Revision resolves the configured contract revision string.
func (c Config) Revision() (contract.Revision, error) {
	return contract.ParseRevision(strings.ToLower(c.ContractRevision))
}

// NormalizedBaseURL strips a trailing slash so path joins stay predictable.
func (c Config) NormalizedBaseURL() string {
	return strings.TrimRight(c.BaseURL, "/")
}
