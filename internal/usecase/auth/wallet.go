package auth

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"orbitlend-backend/internal/domain/apperr"
)

var ErrBadSignature = apperr.Authentication("signature does not match wallet address")

// LoginMessage is the text the wallet signs with personal_sign.
func LoginMessage(address, nonce string) string {
	return fmt.Sprintf("Sign in to OrbitLend\n\nWallet: %s\nNonce: %s", strings.ToLower(address), nonce)
}

// RecoverAddress returns the signer of an EIP-191 personal message.
func RecoverAddress(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return common.Address{}, apperr.Validation("signature must be 65 bytes of 0x-prefixed hex")
	}
	// wallets report v as 27/28
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, ErrBadSignature
	}
	return crypto.PubkeyToAddress(*pub), nil
}
