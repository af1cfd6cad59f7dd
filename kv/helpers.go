package kv

import "context"

// Update is a helper to open a read-write transaction and update the database.
func Update(ctx context.Context, db KV, update func(tx Tx) error) error {
	tx, err := db.Tx(true)
	if err != nil {
		return err
	}
	if err = update(tx); err != nil {
		defer tx.Close()
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		defer tx.Close()
		return err
	}
	return tx.Close()
}

// View is a helper to open a read-only transaction to read the database.
func View(ctx context.Context, db KV, view func(tx Tx) error) error {
	tx, err := db.Tx(false)
	if err != nil {
		return err
	}
	if err = view(tx); err != nil {
		defer tx.Close()
		return err
	}
	return tx.Close()
}

// Each is a helper to to enumerate all key-value pairs with a specific prefix.
// See Iterator for rules of using returned values.
func Each(ctx context.Context, tx Tx, pref Key, fnc func(k Key, v Value) error) error {
	it := tx.Scan(pref)
	defer it.Close()
	for it.Next(ctx) {
		if err := fnc(it.Key(), it.Val()); err != nil {
			return err
		}
	}
	return it.Err()
}

// Keys collects copies of all keys with a specific prefix.
func Keys(ctx context.Context, tx Tx, pref Key) ([]Key, error) {
	var out []Key
	err := Each(ctx, tx, pref, func(k Key, _ Value) error {
		out = append(out, k.Clone())
		return nil
	})
	return out, err
}
