package app

import (
	"context"
	"errors"
	"flash-alliance/internal/config"
	"flash-alliance/internal/journal"
	"flash-alliance/internal/model"
	"flash-alliance/internal/signkeys"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// TokenIssuer signs a bearer token whose subject is account.
type TokenIssuer func(account model.Address) (string, error)

type AccountSummary struct {
	Name        string        `yaml:"name"`
	Address     model.Address `yaml:"address"`
	PublicKey   string        `yaml:"publicKey"`
	PrivateKey  string        `yaml:"privateKey"`
	BearerToken string        `yaml:"bearerToken,omitempty"`
}

type CollectionSummary struct {
	Address model.Address `yaml:"address"`
	Name    string        `yaml:"name"`
	Symbol  string        `yaml:"symbol"`
	ItemID  uint64        `yaml:"itemId"`
	Holder  model.Address `yaml:"holder"`
	Approve bool          `yaml:"approvedForAlliance"`
}

// Summary lists what a local bootstrap deployed.
type Summary struct {
	Deployer     AccountSummary     `yaml:"deployer"`
	Participants []AccountSummary   `yaml:"participants"`
	Seller       AccountSummary     `yaml:"seller"`
	Token        model.Address      `yaml:"token"`
	Factory      model.Address      `yaml:"factory"`
	Faucet       model.Address      `yaml:"faucet,omitempty"`
	Alliance     model.Address      `yaml:"alliance"`
	Shares       []uint8            `yaml:"shares"`
	TargetPrice  string             `yaml:"targetPrice"`
	Deadline     time.Time          `yaml:"fundingDeadline"`
	Seeded       bool               `yaml:"seededDeposits"`
	Collection   *CollectionSummary `yaml:"mockNft,omitempty"`
}

func newAccountSummary(account signkeys.Account, issue TokenIssuer) (AccountSummary, error) {
	summary := AccountSummary{
		Name:       account.Name,
		Address:    account.Address(),
		PublicKey:  account.Keys.PublicKey.AsHex(),
		PrivateKey: account.Keys.PrivateKey.AsHex(),
	}
	if issue != nil {
		token, err := issue(summary.Address)
		if err != nil {
			return AccountSummary{}, errors.New("failed to issue a token for " + account.Name + ": " + err.Error())
		}
		summary.BearerToken = token
	}
	return summary, nil
}

// Bootstrap deploys a local environment: a deployer, three participants and a
// seller, the token, the factory, optionally the faucet, one alliance with the
// configured shares and optionally a mock collectible offered by the seller.
func Bootstrap(ctx context.Context, logger *zap.Logger, store journal.Store, cfg config.Bootstrap, issue TokenIssuer, opts ...Option) (*App, Summary, error) {
	if len(cfg.Shares) != config.BootstrapParticipants {
		return nil, Summary{}, errors.New("bootstrap needs " + strconv.Itoa(config.BootstrapParticipants) + " shares")
	}

	deployer, err := signkeys.NewAccount("deployer")
	if err != nil {
		return nil, Summary{}, err
	}
	participants := make([]signkeys.Account, config.BootstrapParticipants)
	for i := range participants {
		if participants[i], err = signkeys.NewAccount("participant" + strconv.Itoa(i+1)); err != nil {
			return nil, Summary{}, err
		}
	}
	seller, err := signkeys.NewAccount("seller")
	if err != nil {
		return nil, Summary{}, err
	}

	a, err := NewApp(logger, store, Config{
		Deployer:    deployer.Address(),
		TokenName:   cfg.TokenName,
		TokenSymbol: cfg.TokenSymbol,
		Decimals:    cfg.Decimals,
	}, opts...)
	if err != nil {
		return nil, Summary{}, err
	}

	summary := Summary{
		Token:       a.TokenInfo().Address,
		Factory:     a.FactoryAddress(),
		Shares:      cfg.Shares,
		TargetPrice: cfg.Target.String(),
		Seeded:      cfg.SeedDeposits,
	}
	if summary.Deployer, err = newAccountSummary(deployer, issue); err != nil {
		return nil, Summary{}, err
	}
	if summary.Seller, err = newAccountSummary(seller, issue); err != nil {
		return nil, Summary{}, err
	}

	members := make([]model.Address, len(participants))
	for i, participant := range participants {
		members[i] = participant.Address()
		accountSummary, err := newAccountSummary(participant, issue)
		if err != nil {
			return nil, Summary{}, err
		}
		summary.Participants = append(summary.Participants, accountSummary)

		if err := a.Mint(ctx, deployer.Address(), members[i], cfg.MintPerParticipant); err != nil {
			return nil, Summary{}, errors.New("minting to " + participant.Name + " failed: " + err.Error())
		}
	}
	logger.Info("minted to each participant", zap.String("amount", cfg.MintPerParticipant.String()))

	if cfg.DeployFaucet {
		if summary.Faucet, err = a.DeployFaucet(ctx, deployer.Address(), cfg.FaucetClaimAmount, cfg.FaucetCooldown); err != nil {
			return nil, Summary{}, err
		}
		if err := a.Mint(ctx, deployer.Address(), summary.Faucet, cfg.FaucetSupply); err != nil {
			return nil, Summary{}, errors.New("funding the faucet failed: " + err.Error())
		}
		logger.Info("faucet funded", zap.String("amount", cfg.FaucetSupply.String()))
	}

	if summary.Alliance, err = a.CreateAlliance(ctx, deployer.Address(), cfg.Target, cfg.Deadline, members, cfg.Shares); err != nil {
		return nil, Summary{}, err
	}
	snapshot, err := a.Alliance(summary.Alliance)
	if err != nil {
		return nil, Summary{}, err
	}
	summary.Deadline = snapshot.FundingDeadline

	for _, member := range members {
		if err := a.Approve(ctx, member, summary.Alliance, cfg.MintPerParticipant); err != nil {
			return nil, Summary{}, err
		}
	}
	logger.Info("participants approved the alliance", zap.String("alliance", summary.Alliance.String()))

	if cfg.SeedDeposits {
		for i, member := range members {
			amount := cfg.Target.MulDiv(uint64(cfg.Shares[i]), model.SharesTotal)
			if err := a.Deposit(ctx, summary.Alliance, member, amount); err != nil {
				return nil, Summary{}, errors.New("seed deposit failed: " + err.Error())
			}
		}
		logger.Info("seed deposits completed")
	}

	if cfg.CreateMockNFT {
		collection, err := a.CreateCollection(ctx, deployer.Address(), cfg.MockNFTName, cfg.MockNFTSymbol)
		if err != nil {
			return nil, Summary{}, err
		}
		if err := a.MintItem(ctx, collection, seller.Address(), cfg.MockNFTTokenID); err != nil {
			return nil, Summary{}, err
		}
		if cfg.ApproveMockNFT {
			if err := a.ApproveItem(ctx, seller.Address(), collection, summary.Alliance, cfg.MockNFTTokenID); err != nil {
				return nil, Summary{}, err
			}
		}
		summary.Collection = &CollectionSummary{
			Address: collection,
			Name:    cfg.MockNFTName,
			Symbol:  cfg.MockNFTSymbol,
			ItemID:  cfg.MockNFTTokenID,
			Holder:  seller.Address(),
			Approve: cfg.ApproveMockNFT,
		}
	}

	logger.Info("bootstrap finished",
		zap.String("factory", summary.Factory.String()),
		zap.String("token", summary.Token.String()),
		zap.String("faucet", summary.Faucet.String()),
		zap.String("alliance", summary.Alliance.String()))

	return a, summary, nil
}

// WriteSummary stores the summary as YAML at path.
func WriteSummary(path string, summary Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return errors.New("failed to marshal the bootstrap summary: " + err.Error())
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.New("failed to write the bootstrap summary: " + err.Error())
	}
	return nil
}
