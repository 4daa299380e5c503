package memory

// Builder builds composite estimations field by field.
//
//	est := memory.NewBuilder("PageRank").
//		StartField(memory.ResidentMemory).
//		Add(memory.OfDimensions("scores", scoresFn)).
//		EndField().
//		Build()
type Builder struct {
	stack []builderFrame
}

type builderFrame struct {
	description string
	components  []Estimation
}

// NewBuilder returns a new estimation builder with a root named by description.
func NewBuilder(description string) *Builder {
	return &Builder{stack: []builderFrame{{description: description}}}
}

func (b *Builder) current() *builderFrame { return &b.stack[len(b.stack)-1] }

// StartField opens a nested composite estimation.
func (b *Builder) StartField(description string) *Builder {
	b.stack = append(b.stack, builderFrame{description: description})
	return b
}

// EndField closes the last opened field. Ending the root is a programming error.
func (b *Builder) EndField() *Builder {
	if len(b.stack) <= 1 {
		panic("memory estimation builder: can't end the root field")
	}
	frame := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	b.current().components = append(b.current().components, Composite(frame.description, frame.components...))
	return b
}

// Add adds an estimation to the current field.
func (b *Builder) Add(e Estimation) *Builder {
	b.current().components = append(b.current().components, e)
	return b
}

// Fixed adds a constant estimation to the current field.
func (b *Builder) Fixed(description string, bytes int64) *Builder {
	return b.Add(Fixed(description, bytes))
}

// PerNode adds a per node scaled estimation to the current field.
func (b *Builder) PerNode(description string, bytesPerNode int64) *Builder {
	return b.Add(PerNode(description, Fixed(description, bytesPerNode)))
}

// PerThread adds a per thread scaled estimation to the current field.
func (b *Builder) PerThread(description string, e Estimation) *Builder {
	return b.Add(PerThread(description, e))
}

// Build closes all the open fields and returns the estimation.
func (b *Builder) Build() Estimation {
	for len(b.stack) > 1 {
		b.EndField()
	}
	root := b.stack[0]
	return Composite(root.description, root.components...)
}
