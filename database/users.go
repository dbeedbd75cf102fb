package database

import (
	"database/sql"
	"fmt"

	"storefront/model"
)

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
}

// GetAllUsers loads every user together with their purchase history.
func GetAllUsers(dbtx DBTX) ([]*model.User, error) {
	var rows []userRow
	if err := dbtx.Select(&rows, `SELECT id, username, password_hash FROM users ORDER BY username`); err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}

	purchases, err := GetAllPurchases(dbtx)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string][]model.PurchaseRecord)
	for _, p := range purchases {
		byUser[p.Username] = append(byUser[p.Username], p)
	}

	users := make([]*model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, &model.User{
			ID:           r.ID,
			Username:     r.Username,
			PasswordHash: r.PasswordHash,
			Purchases:    byUser[r.Username],
		})
	}
	return users, nil
}

// GetUserByUsername returns nil when the username is not registered.
func GetUserByUsername(dbtx DBTX, username string) (*model.User, error) {
	var r userRow
	q := dbtx.Rebind(`SELECT id, username, password_hash FROM users WHERE username = ?`)
	if err := dbtx.Get(&r, q, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("GetUserByUsername (%s) failed: %w", username, err)
	}
	purchases, err := GetPurchasesByUsername(dbtx, username)
	if err != nil {
		return nil, err
	}
	return &model.User{ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash, Purchases: purchases}, nil
}

func InsertUser(dbtx DBTX, u *model.User) error {
	q := dbtx.Rebind(`INSERT INTO users (id, username, password_hash) VALUES (?, ?, ?)`)
	if _, err := dbtx.Exec(q, u.ID, u.Username, u.PasswordHash); err != nil {
		return fmt.Errorf("InsertUser (%s) failed: %w", u.Username, err)
	}
	return nil
}
