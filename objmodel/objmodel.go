// Package objmodel parses the hierarchical XML the engine's structured query
// command prints: the debuggee process, its threads, their stack frames and
// the locals/parameters of each frame.
//
// The package is a consumer of the capture core, not part of it: it receives
// the captured normal-channel text unmodified and turns it into typed records.
package objmodel

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/hupe1980/dbgmesh/core"
	"github.com/hupe1980/dbgmesh/engine"
)

// DefaultQueryCommand is the engine command producing the object-model XML.
const DefaultQueryCommand = "!objectmodel"

// Variable is a local or parameter of a stack frame.
type Variable struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

// Frame is one stack frame of a thread.
type Frame struct {
	Index  int        `xml:"index,attr"`
	Module string     `xml:"module,attr"`
	Method string     `xml:"method,attr"`
	Offset string     `xml:"offset,attr"`
	Locals []Variable `xml:"local"`
	Params []Variable `xml:"param"`
}

// Thread is one thread of the debuggee with its stack.
type Thread struct {
	ID     int     `xml:"id,attr"`
	OSID   string  `xml:"osid,attr"`
	State  string  `xml:"state,attr"`
	Frames []Frame `xml:"frame"`
}

// Process is the root of the object model.
type Process struct {
	XMLName xml.Name `xml:"process"`
	ID      int      `xml:"id,attr"`
	Name    string   `xml:"name,attr"`
	Threads []Thread `xml:"thread"`
}

// Thread returns the thread with the given engine thread ID.
func (p *Process) Thread(id int) (*Thread, bool) {
	for i := range p.Threads {
		if p.Threads[i].ID == id {
			return &p.Threads[i], true
		}
	}
	return nil, false
}

// Parse decodes the query command's XML output into a Process. The input is
// the raw captured text; whitespace-only input yields core.ErrNoOutput.
func Parse(data []byte) (*Process, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, core.ErrNoOutput
	}

	var p Process
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse object model: %w", err)
	}
	return &p, nil
}

// Options configures a Client.
type Options struct {
	// QueryCommand overrides the engine command issued to fetch the model.
	QueryCommand string
}

// Client fetches the object model through an Engine.
type Client struct {
	engine  *engine.Engine
	command string
}

// NewClient creates a Client issuing queries through eng.
func NewClient(eng *engine.Engine, optFns ...func(o *Options)) *Client {
	opts := Options{
		QueryCommand: DefaultQueryCommand,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{engine: eng, command: opts.QueryCommand}
}

// WithQueryCommand overrides the query command.
func WithQueryCommand(command string) func(o *Options) {
	return func(o *Options) { o.QueryCommand = command }
}

// Process runs the query command and parses its normal-channel output.
func (c *Client) Process(ctx context.Context) (*Process, error) {
	_, out, err := c.engine.Run(ctx, c.command)
	if err != nil {
		return nil, err
	}
	return Parse([]byte(out.Normal))
}
