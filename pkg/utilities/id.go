package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// IDGenerator hands out time-ordered snowflake ids. It falls back to KSUIDs
// when the node could not be created.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGeneratorFromEnv builds a generator for the node in SNOWFLAKE_NODE,
// defaulting to node 1.
func NewIDGeneratorFromEnv() *IDGenerator {
	nodeID := int64(1)
	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			nodeID = n
		}
	}
	return NewIDGenerator(nodeID)
}

// NewIDGenerator creates a generator for the given node id.
func NewIDGenerator(nodeID int64) *IDGenerator {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return &IDGenerator{}
	}
	return &IDGenerator{node: node}
}

// Next returns the next id as a string. Safe for concurrent use.
func (g *IDGenerator) Next() string {
	if g == nil || g.node == nil {
		return NewKSUID()
	}
	return g.node.Generate().String()
}
