// Copyright (c) 2023 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package common

import (
	"os"
	"strings"
)

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

// ExpandEnv replaces ${VAR} and ${VAR:default} references in a config
// document. An unset or empty variable takes the default, or "" without one.
func ExpandEnv(doc string) string {
	return os.Expand(doc, func(ref string) string {
		name, fallback, _ := strings.Cut(ref, ":")
		if value := os.Getenv(name); value != "" {
			return value
		}
		return fallback
	})
}

// RedactSecret keeps the first and last two characters of a credential
// for log lines.
func RedactSecret(secret string) string {
	if len(secret) <= 6 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
