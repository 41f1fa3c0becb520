package configs

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/repolens/cli/entity"
)

// credentialsMu serialises reads and writes of credentials.json within the
// process; the server runs many sessions against the same file.
var credentialsMu sync.Mutex

type credentialsFile struct {
	Accounts map[string]entity.Credential `json:"accounts"`
}

func (c *Configs) readCredentials() (*credentialsFile, error) {
	var cfg credentialsFile
	b, err := os.ReadFile(c.credentialsPath)
	if os.IsNotExist(err) {
		return &credentialsFile{Accounts: map[string]entity.Credential{}}, nil
	} else if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if cfg.Accounts == nil {
		cfg.Accounts = map[string]entity.Credential{}
	}
	return &cfg, nil
}

func (c *Configs) writeCredentials(cfg *credentialsFile) error {
	if err := c.CreatePathIfNotExist(c.credentialsPath); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.credentialsPath, b, 0o600)
}

// GetCredential returns the stored credential for account, or nil.
func (c *Configs) GetCredential(account string) (*entity.Credential, error) {
	credentialsMu.Lock()
	defer credentialsMu.Unlock()

	cfg, err := c.readCredentials()
	if err != nil {
		return nil, err
	}
	cred, ok := cfg.Accounts[account]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (c *Configs) SetCredential(account string, cred *entity.Credential) error {
	credentialsMu.Lock()
	defer credentialsMu.Unlock()

	cfg, err := c.readCredentials()
	if err != nil {
		return err
	}
	cfg.Accounts[account] = *cred
	return c.writeCredentials(cfg)
}

func (c *Configs) DeleteCredential(account string) error {
	credentialsMu.Lock()
	defer credentialsMu.Unlock()

	cfg, err := c.readCredentials()
	if err != nil {
		return err
	}
	if _, ok := cfg.Accounts[account]; !ok {
		return nil
	}
	delete(cfg.Accounts, account)
	return c.writeCredentials(cfg)
}
