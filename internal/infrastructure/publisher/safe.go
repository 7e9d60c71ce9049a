package publisher

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/client"
	"nav_oracle/internal/domain/entity"
	wire "nav_oracle/internal/entity"
)

var (
	domainSeparatorTypehash = crypto.Keccak256([]byte("EIP712Domain(uint256 chainId,address verifyingContract)"))
	safeTxTypehash          = crypto.Keccak256([]byte("SafeTx(address to,uint256 value,bytes data,uint8 operation,uint256 safeTxGas,uint256 baseGas,uint256 gasPrice,address gasToken,address refundReceiver,uint256 nonce)"))
)

// SafePublisher proposes the submitReports transaction to a Gnosis Safe via
// its transaction service. The proposal still needs the remaining signer
// confirmations before execution; the oracle only queues it.
type SafePublisher struct {
	api           client.SafeClient
	safeAddress   common.Address
	oracleAddress common.Address
	chainID       *big.Int
	proposerKey   *ecdsa.PrivateKey
	sender        common.Address
	logger        port.Logger
}

// NewSafePublisher creates a SafePublisher. proposerKeyHex is the hex-encoded
// private key of a Safe owner or delegate allowed to propose.
func NewSafePublisher(api client.SafeClient, safeAddress, oracleAddress common.Address, chainID int64, proposerKeyHex string, logger port.Logger) (*SafePublisher, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(proposerKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid proposer key: %w", err)
	}
	return &SafePublisher{
		api:           api,
		safeAddress:   safeAddress,
		oracleAddress: oracleAddress,
		chainID:       big.NewInt(chainID),
		proposerKey:   key,
		sender:        crypto.PubkeyToAddress(key.PublicKey),
		logger:        logger,
	}, nil
}

// Publish implements port.ReportPublisher.
func (p *SafePublisher) Publish(ctx context.Context, report *entity.OracleReport) error {
	calldata, err := EncodeSubmitReports(report)
	if err != nil {
		return err
	}

	info, err := p.api.GetSafeInfo(ctx, p.safeAddress.Hex())
	if err != nil {
		return fmt.Errorf("failed to read Safe state: %w", err)
	}

	safeTxHash := p.safeTxHash(calldata, info.Nonce)
	signature, err := crypto.Sign(safeTxHash, p.proposerKey)
	if err != nil {
		return fmt.Errorf("failed to sign Safe transaction hash: %w", err)
	}
	// Safe expects legacy recovery ids (27/28).
	signature[64] += 27

	proposal := &wire.SafeProposeRequest{
		To:                      p.oracleAddress.Hex(),
		Value:                   "0",
		Data:                    hexLower(calldata),
		Operation:               0,
		SafeTxGas:               "0",
		BaseGas:                 "0",
		GasPrice:                "0",
		Nonce:                   info.Nonce,
		ContractTransactionHash: hexLower(safeTxHash),
		Sender:                  p.sender.Hex(),
		Signature:               hexLower(signature),
	}
	if err := p.api.ProposeTransaction(ctx, p.safeAddress.Hex(), proposal); err != nil {
		return err
	}

	p.logger.Info("Report proposed to Safe",
		"safe", p.safeAddress.Hex(), "nonce", info.Nonce, "safe_tx_hash", proposal.ContractTransactionHash)
	return nil
}

// safeTxHash computes the EIP-712 hash the Safe contracts sign over for a
// zero-value call transaction.
func (p *SafePublisher) safeTxHash(calldata []byte, nonce int64) []byte {
	domainSeparator := crypto.Keccak256(
		domainSeparatorTypehash,
		common.LeftPadBytes(p.chainID.Bytes(), 32),
		common.LeftPadBytes(p.safeAddress.Bytes(), 32),
	)

	zero := make([]byte, 32)
	structHash := crypto.Keccak256(
		safeTxTypehash,
		common.LeftPadBytes(p.oracleAddress.Bytes(), 32), // to
		zero,                       // value
		crypto.Keccak256(calldata), // keccak(data)
		zero,                       // operation: CALL
		zero,                       // safeTxGas
		zero,                       // baseGas
		zero,                       // gasPrice
		zero,                       // gasToken
		zero,                       // refundReceiver
		common.LeftPadBytes(big.NewInt(nonce).Bytes(), 32),
	)

	return crypto.Keccak256([]byte{0x19, 0x01}, domainSeparator, structHash)
}
