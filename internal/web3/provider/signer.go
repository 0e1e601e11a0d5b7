package provider

import (
	"fmt"

	"ChainKit/internal/web3/accounts"
	"ChainKit/internal/web3/ethereum"
	"ChainKit/internal/web3/networks"

	gethaccounts "github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SigningClient is a read-only client paired with a signing account.
type SigningClient struct {
	*ethereum.Client
	chainID networks.ChainID
	account accounts.Account
}

// Address returns the signer address.
func (s *SigningClient) Address() common.Address {
	return s.account.Address
}

// SignMessage produces a 65-byte EIP-191 signature with V in {27, 28}.
func (s *SigningClient) SignMessage(message []byte) ([]byte, error) {
	sig, err := crypto.Sign(gethaccounts.TextHash(message), s.account.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// ChainID returns the chain the signer is bound to.
func (s *SigningClient) ChainID() networks.ChainID {
	return s.chainID
}

// RecoverMessageSigner returns the address that produced sig over message.
func RecoverMessageSigner(message, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(gethaccounts.TextHash(message), normalized)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
