package cache

import (
	"fmt"
)

type EntityType string

const (
	EntityWallet EntityType = "wallet"
	EntityFee    EntityType = "fee"
)

type KeyType string

const (
	KeyID    KeyType = "id"
	KeyOwner KeyType = "owner"
	KeyTxType KeyType = "type"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}
