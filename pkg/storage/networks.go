package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cuemby/vordr/pkg/types"
)

func (s *SQLiteStore) CreateNetwork(ctx context.Context, n *types.Network) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO networks (id, name, driver, subnet, gateway, options) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.Name, n.Driver, n.Subnet, n.Gateway, n.Options)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %s", ErrNetworkAlreadyExists, n.Name)
		}
		return fmt.Errorf("storage: create network: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetNetwork(ctx context.Context, idOrName string) (*types.Network, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, driver, subnet, gateway, options, created_at
		 FROM networks WHERE id = ? OR name = ?`, idOrName, idOrName)
	return scanNetwork(row)
}

func (s *SQLiteStore) ListNetworks(ctx context.Context) ([]*types.Network, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, driver, subnet, gateway, options, created_at
		 FROM networks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage: list networks: %w", err)
	}
	defer rows.Close()

	var networks []*types.Network
	for rows.Next() {
		n, err := scanNetwork(rows)
		if err != nil {
			return nil, err
		}
		networks = append(networks, n)
	}
	return networks, rows.Err()
}

func (s *SQLiteStore) DeleteNetwork(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM networks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete network: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNetworkNotFound, id)
	}
	return nil
}

// ConnectContainerNetwork attaches a container to a network. The row is a
// weak reference: deleting either side cascades it away.
func (s *SQLiteStore) ConnectContainerNetwork(ctx context.Context, cn *types.ContainerNetwork) error {
	aliasesJSON, err := json.Marshal(cn.Aliases)
	if err != nil {
		return fmt.Errorf("storage: marshal aliases: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO container_networks (container_id, network_id, ip_address, mac_address, aliases)
		 VALUES (?, ?, ?, ?, ?)`,
		cn.ContainerID, cn.NetworkID, cn.IPAddress, cn.MACAddress, string(aliasesJSON))
	if err != nil {
		return fmt.Errorf("storage: connect container network: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DisconnectContainerNetwork(ctx context.Context, containerID, networkID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM container_networks WHERE container_id = ? AND network_id = ?`,
		containerID, networkID)
	if err != nil {
		return fmt.Errorf("storage: disconnect container network: %w", err)
	}
	return nil
}

func scanNetwork(row rowScanner) (*types.Network, error) {
	var n types.Network
	var subnet, gateway, options sql.NullString
	var createdAt string

	err := row.Scan(&n.ID, &n.Name, &n.Driver, &subnet, &gateway, &options, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNetworkNotFound
		}
		return nil, fmt.Errorf("storage: scan network: %w", err)
	}
	n.Subnet = subnet.String
	n.Gateway = gateway.String
	n.Options = options.String
	n.CreatedAt = parseTimestamp(createdAt)
	return &n, nil
}
