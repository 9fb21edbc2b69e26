package storage

import (
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const walletBucket = "wallet"

type BoltDB struct {
	bolt *bolt.DB
}

func InitBolt(path string) (*BoltDB, error) {
	dbpath := filepath.Join(path, "wallet.db")
	db, err := bolt.Open(dbpath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("error opening db: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(walletBucket))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error setting up db: %v", err)
	}

	return &BoltDB{bolt: db}, nil
}

func (db *BoltDB) Get(key string) ([]byte, error) {
	var value []byte
	err := db.bolt.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(walletBucket)).Get([]byte(key))
		if v != nil {
			value = make([]byte, len(v))
			copy(value, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

func (db *BoltDB) Set(key string, value []byte) error {
	err := db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(walletBucket)).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (db *BoltDB) Close() error {
	return db.bolt.Close()
}
