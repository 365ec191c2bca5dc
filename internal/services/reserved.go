package services

import (
	"github.com/gagliardetto/solana-go"
)

// reservedPrograms are on-chain program ids that can never be a user wallet
// or a token mint
var reservedPrograms = map[solana.PublicKey]string{
	solana.MustPublicKeyFromBase58("11111111111111111111111111111111"):             "System Program",
	solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"):  "SPL Token Program",
	solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"):  "Token-2022 Program",
	solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"): "Associated Token Account Program",
}

// reservedProgram returns the program name when address is a reserved id.
// Addresses that do not decode to 32 bytes are never reserved.
func reservedProgram(address string) (string, bool) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return "", false
	}
	name, ok := reservedPrograms[key]
	return name, ok
}
