package pipeline

import "fmt"

// Config 是一条 Pipeline 的声明式配置（例如一个榜单：目录扫描 -> 过滤 -> 排序 -> 截断）。
type Config struct {
	Name  string       `koanf:"name" yaml:"name" json:"name"`
	Nodes []NodeConfig `koanf:"nodes" yaml:"nodes" json:"nodes" validate:"min=1,dive"`
}

// NodeConfig 是单个 Node 的配置。
type NodeConfig struct {
	Type   string         `koanf:"type" yaml:"type" json:"type" validate:"required"` // recall.catalog / filter.expr / rerank.order / rerank.topn ...
	Config map[string]any `koanf:"config" yaml:"config,omitempty" json:"config,omitempty"`
}

// NodeBuilder 根据 config 构建 Node。
type NodeBuilder func(config map[string]any) (Node, error)

// BuildPipeline 根据配置构建 Pipeline。
func (c *Config) BuildPipeline(factory *NodeFactory) (*Pipeline, error) {
	nodes := make([]Node, 0, len(c.Nodes))

	for _, nc := range c.Nodes {
		node, err := factory.Build(nc.Type, nc.Config)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: build node %s: %w", c.Name, nc.Type, err)
		}
		nodes = append(nodes, node)
	}

	return &Pipeline{Nodes: nodes}, nil
}

// NodeFactory 用于根据配置构建 Node 实例。
type NodeFactory struct {
	builders map[string]NodeBuilder
}

func NewNodeFactory() *NodeFactory {
	return &NodeFactory{
		builders: make(map[string]NodeBuilder),
	}
}

// Register 注册 Node 构建器。
func (f *NodeFactory) Register(nodeType string, builder NodeBuilder) {
	f.builders[nodeType] = builder
}

// Build 根据类型和配置构建 Node。
func (f *NodeFactory) Build(nodeType string, config map[string]any) (Node, error) {
	builder, ok := f.builders[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type: %s", nodeType)
	}
	return builder(config)
}

// Types 返回已注册的 Node 类型。
func (f *NodeFactory) Types() []string {
	out := make([]string, 0, len(f.builders))
	for t := range f.builders {
		out = append(out, t)
	}
	return out
}
