// Package xid generates prefixed identifiers for sales, products and
// log entries. Ids embed the creation time so ledger dumps sort roughly
// chronologically without external coordination.
package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

func New(prefix string) string {
	now := strconv.FormatInt(time.Now().UnixMilli(), 36)
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%s-%d", prefix, now, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now, hex.EncodeToString(buf))
}
