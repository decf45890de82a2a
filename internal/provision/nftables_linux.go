//go:build linux

package provision

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/google/nftables"
	"github.com/google/nftables/expr"
	"golang.org/x/sys/unix"
)

// fwTableName is the dedicated nftables table holding the authrelay allow rule.
const fwTableName = "authrelay"

// fwChainName is the input-hook chain inside the authrelay table.
const fwChainName = "input"

// nftablesManager implements FirewallManager directly against the Linux
// nftables subsystem via the google/nftables netlink library. It owns a single
// IPv4 filter table and one input-hook chain carrying the port-allow rule, so
// teardown is simply deleting the table.
type nftablesManager struct {
	logger *slog.Logger
}

func newNftablesManager(logger *slog.Logger) FirewallManager {
	return &nftablesManager{logger: logger}
}

func (m *nftablesManager) Name() string { return "nftables" }

// IsActive reports whether the nftables netlink API is reachable, which
// requires a running kernel with nf_tables and sufficient privilege.
func (m *nftablesManager) IsActive() bool {
	conn, err := nftables.New()
	if err != nil {
		return false
	}
	_, err = conn.ListTables()
	return err == nil
}

func (m *nftablesManager) AllowPort(port int) error {
	conn, err := nftables.New()
	if err != nil {
		return fmt.Errorf("provision: nftables: allow port: %w", err)
	}

	table := conn.AddTable(&nftables.Table{
		Family: nftables.TableFamilyIPv4,
		Name:   fwTableName,
	})
	chain := conn.AddChain(&nftables.Chain{
		Name:     fwChainName,
		Table:    table,
		Type:     nftables.ChainTypeFilter,
		Hooknum:  nftables.ChainHookInput,
		Priority: nftables.ChainPriorityFilter,
	})

	// The chain carries exactly one rule; flushing first keeps reruns from
	// stacking duplicates.
	conn.FlushChain(chain)
	conn.AddRule(&nftables.Rule{
		Table: table,
		Chain: chain,
		Exprs: allowPortExprs(uint16(port)),
	})

	if err := conn.Flush(); err != nil {
		return fmt.Errorf("provision: nftables: allow port %d: %w", port, err)
	}

	m.logger.Info("firewall port opened", "component", "firewall", "manager", "nftables", "port", port)
	return nil
}

// RemovePort deletes the authrelay table. It is idempotent: an absent table
// returns nil.
func (m *nftablesManager) RemovePort(port int) error {
	conn, err := nftables.New()
	if err != nil {
		return fmt.Errorf("provision: nftables: remove port: %w", err)
	}

	tables, err := conn.ListTables()
	if err != nil {
		return fmt.Errorf("provision: nftables: remove port: list tables: %w", err)
	}
	for _, table := range tables {
		if table.Family == nftables.TableFamilyIPv4 && table.Name == fwTableName {
			conn.DelTable(table)
			if err := conn.Flush(); err != nil {
				return fmt.Errorf("provision: nftables: remove port %d: %w", port, err)
			}
			m.logger.Info("firewall port closed", "component", "firewall", "manager", "nftables", "port", port)
			return nil
		}
	}

	m.logger.Debug("nftables table not found, nothing to remove",
		"component", "firewall",
		"table", fwTableName,
	)
	return nil
}

// allowPortExprs builds the match expressions and verdict for a single
// "tcp dport <port> accept" rule.
func allowPortExprs(port uint16) []expr.Any {
	return []expr.Any{
		&expr.Meta{Key: expr.MetaKeyL4PROTO, Register: 1},
		&expr.Cmp{
			Op:       expr.CmpOpEq,
			Register: 1,
			Data:     []byte{unix.IPPROTO_TCP},
		},
		&expr.Payload{
			DestRegister: 1,
			Base:         expr.PayloadBaseTransportHeader,
			Offset:       2, // TCP destination port offset
			Len:          2,
		},
		&expr.Cmp{
			Op:       expr.CmpOpEq,
			Register: 1,
			Data:     portBytes(port),
		},
		&expr.Counter{},
		&expr.Verdict{Kind: expr.VerdictAccept},
	}
}

func portBytes(port uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, port)
	return b
}
