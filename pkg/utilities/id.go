package utilities

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// RandomSuffix returns n lower-case characters taken from the random payload
// end of a fresh KSUID. n is capped at 16.
func RandomSuffix(n int) string {
	if n > 16 {
		n = 16
	}
	s := ksuid.New().String()
	return strings.ToLower(s[len(s)-n:])
}

// IDGenerator hands out snowflake ids from a single node so sequence numbers
// are never reused within a millisecond.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGenerator creates a generator for the given snowflake node (0-1023).
func NewIDGenerator(nodeID int64) (*IDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &IDGenerator{node: node}, nil
}

func (g *IDGenerator) Next() int64 {
	return g.node.Generate().Int64()
}
