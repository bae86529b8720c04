package config

import (
	"errors"
	"flash-alliance/internal/model"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// BootstrapParticipants is the number of local participant accounts seeded.
const BootstrapParticipants = 3

// Bootstrap describes the local environment seeded at startup.
type Bootstrap struct {
	Enabled bool

	Shares             []uint8
	Target             model.Amount
	Deadline           time.Duration
	MintPerParticipant model.Amount
	SeedDeposits       bool

	DeployFaucet      bool
	FaucetSupply      model.Amount
	FaucetClaimAmount model.Amount
	FaucetCooldown    time.Duration

	CreateMockNFT  bool
	ApproveMockNFT bool
	MockNFTName    string
	MockNFTSymbol  string
	MockNFTTokenID uint64

	TokenName   string
	TokenSymbol string
	Decimals    uint8
	SummaryPath string
}

func setBootstrapDefaults() {
	viper.SetDefault("BOOTSTRAP_LOCAL", false)
	viper.SetDefault("SHARES", "50,30,20")
	viper.SetDefault("TARGET_TOKENS", "50000")
	viper.SetDefault("DEADLINE_SECONDS", 604800)
	viper.SetDefault("MINT_PER_PARTICIPANT", "200000")
	viper.SetDefault("SEED_DEPOSITS", false)
	viper.SetDefault("DEPLOY_FAUCET", true)
	viper.SetDefault("FAUCET_SUPPLY", "10000000")
	viper.SetDefault("FAUCET_CLAIM_AMOUNT", "10000")
	viper.SetDefault("FAUCET_COOLDOWN_SECONDS", 86400)
	viper.SetDefault("CREATE_MOCK_NFT", true)
	viper.SetDefault("APPROVE_MOCK_NFT", true)
	viper.SetDefault("MOCK_NFT_NAME", "FlashAlliance Mock NFT")
	viper.SetDefault("MOCK_NFT_SYMBOL", "FAMOCK")
	viper.SetDefault("MOCK_NFT_TOKEN_ID", 1)
	viper.SetDefault("TOKEN_NAME", "Flash Alliance Token")
	viper.SetDefault("TOKEN_SYMBOL", "FATK")
	viper.SetDefault("TOKEN_DECIMALS", model.DefaultDecimals)
	viper.SetDefault("BOOTSTRAP_SUMMARY_PATH", "bootstrap-local.yaml")
}

// LoadBootstrap reads the bootstrap settings and reports every invalid one.
func LoadBootstrap() (Bootstrap, error) {
	initialize()

	var err error
	cfg := Bootstrap{
		Enabled:        viper.GetBool("BOOTSTRAP_LOCAL"),
		SeedDeposits:   viper.GetBool("SEED_DEPOSITS"),
		DeployFaucet:   viper.GetBool("DEPLOY_FAUCET"),
		CreateMockNFT:  viper.GetBool("CREATE_MOCK_NFT"),
		ApproveMockNFT: viper.GetBool("APPROVE_MOCK_NFT"),
		MockNFTName:    viper.GetString("MOCK_NFT_NAME"),
		MockNFTSymbol:  viper.GetString("MOCK_NFT_SYMBOL"),
		MockNFTTokenID: viper.GetUint64("MOCK_NFT_TOKEN_ID"),
		TokenName:      viper.GetString("TOKEN_NAME"),
		TokenSymbol:    viper.GetString("TOKEN_SYMBOL"),
		SummaryPath:    viper.GetString("BOOTSTRAP_SUMMARY_PATH"),
	}

	decimals := viper.GetInt("TOKEN_DECIMALS")
	if decimals < 0 || decimals > 77 {
		err = multierr.Append(err, fmt.Errorf("TOKEN_DECIMALS out of range: %d", decimals))
		decimals = model.DefaultDecimals
	}
	cfg.Decimals = uint8(decimals)

	shares, sharesErr := ParseShares(viper.GetString("SHARES"))
	err = multierr.Append(err, sharesErr)
	cfg.Shares = shares

	cfg.Target, err = appendUnits(err, "TARGET_TOKENS", cfg.Decimals)
	cfg.MintPerParticipant, err = appendUnits(err, "MINT_PER_PARTICIPANT", cfg.Decimals)
	cfg.FaucetSupply, err = appendUnits(err, "FAUCET_SUPPLY", cfg.Decimals)
	cfg.FaucetClaimAmount, err = appendUnits(err, "FAUCET_CLAIM_AMOUNT", cfg.Decimals)

	cfg.Deadline, err = appendSeconds(err, "DEADLINE_SECONDS")
	if cfg.DeployFaucet {
		cfg.FaucetCooldown, err = appendSeconds(err, "FAUCET_COOLDOWN_SECONDS")
	}
	if cfg.CreateMockNFT && strings.TrimSpace(cfg.MockNFTSymbol) == "" {
		err = multierr.Append(err, errors.New("MOCK_NFT_SYMBOL is missing"))
	}

	return cfg, err
}

func appendUnits(err error, key string, decimals uint8) (model.Amount, error) {
	amount, parseErr := model.ParseUnits(viper.GetString(key), decimals)
	if parseErr != nil {
		return model.Amount{}, multierr.Append(err, errors.New(key+": "+parseErr.Error()))
	}
	return amount, err
}

func appendSeconds(err error, key string) (time.Duration, error) {
	duration, convErr := model.Seconds(viper.GetInt64(key))
	if convErr != nil {
		return 0, multierr.Append(err, errors.New(key+": "+convErr.Error()))
	}
	return duration, err
}

// ParseShares reads a comma separated share table such as "50,30,20".
func ParseShares(raw string) ([]uint8, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != BootstrapParticipants {
		return nil, fmt.Errorf("SHARES must have exactly %d values, got %q", BootstrapParticipants, raw)
	}

	var err error
	shares := make([]uint8, 0, len(parts))
	sum := 0
	for _, part := range parts {
		value, parseErr := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if parseErr != nil || value == 0 {
			err = multierr.Append(err, fmt.Errorf("invalid share %q", part))
			continue
		}
		shares = append(shares, uint8(value))
		sum += int(value)
	}
	if err != nil {
		return nil, err
	}
	if sum != model.SharesTotal {
		return nil, fmt.Errorf("SHARES must sum to %d, got %d", model.SharesTotal, sum)
	}
	return shares, nil
}
