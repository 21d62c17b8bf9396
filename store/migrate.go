package store

import (
	"encoding/binary"
	"encoding/json"

	"go.etcd.io/bbolt"
)

const schemaVersion = 1

var versionKey = []byte("schema_version")

func storedVersion(tx *bbolt.Tx) uint64 {
	raw := tx.Bucket([]byte(metaBucket)).Get(versionKey)
	if len(raw) != 8 {
		return 0
	}

	return binary.BigEndian.Uint64(raw)
}

// migrateEntries moves entries written before per-user buckets existed into
// a nested bucket named after their owner.
func migrateEntries(tx *bbolt.Tx) error {
	bucket := tx.Bucket([]byte(entryBucket))

	type entry struct {
		UserID string `json:"user_id"`
	}

	var flat [][2][]byte

	err := bucket.ForEach(func(k, v []byte) error {
		if v != nil {
			flat = append(flat, [2][]byte{k, v})
		}

		return nil
	})
	if err != nil {
		return err
	}

	for _, kv := range flat {
		var e entry

		if err := json.Unmarshal(kv[1], &e); err != nil {
			return err
		}

		userBucket, err := bucket.CreateBucketIfNotExists([]byte(e.UserID))
		if err != nil {
			return err
		}

		if err := userBucket.Put(kv[0], kv[1]); err != nil {
			return err
		}

		if err := bucket.Delete(kv[0]); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) migrate(tx *bbolt.Tx) error {
	if storedVersion(tx) >= schemaVersion {
		return nil
	}

	err := migrateEntries(tx)
	if err != nil {
		return err
	}

	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, schemaVersion)

	return tx.Bucket([]byte(metaBucket)).Put(versionKey, raw)
}
