/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package control

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"jinr.ru/greenlab/go-m72/pkg/log"
	"jinr.ru/greenlab/go-m72/pkg/regfile"
)

const (
	BucketNamePrefix = "reg_"
)

// RegState mirrors the last value written to every module register. Most
// M72 registers can not be read back, so this is the only record of them.
type RegState struct {
	DB     *bbolt.DB
	bucket []byte
}

var _ regfile.Store = &RegState{}

func NewRegState(path, deviceName string) (*RegState, error) {
	// open register database
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	bucket := []byte(bucketName(deviceName))
	if err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &RegState{DB: db, bucket: bucket}, nil
}

func uint16ToByte(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func bucketName(deviceName string) string {
	return fmt.Sprintf("%s%s", BucketNamePrefix, deviceName)
}

func (s *RegState) Close() error {
	return s.DB.Close()
}

// SetReg ...
func (s *RegState) SetReg(addr, value uint16) error {
	log.Debug("Setting register: Addr: %x Value: %x", addr, value)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return ErrNotFound{What: fmt.Sprintf("bucket %s", s.bucket)}
		}
		return b.Put(uint16ToByte(addr), uint16ToByte(value))
	})
}

// GetReg ...
func (s *RegState) GetReg(addr uint16) (uint16, error) {
	var value uint16
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return ErrNotFound{What: fmt.Sprintf("bucket %s", s.bucket)}
		}
		valueBytes := b.Get(uint16ToByte(addr))
		if valueBytes == nil {
			return ErrNotFound{What: fmt.Sprintf("register 0x%02x", addr)}
		}
		value = binary.BigEndian.Uint16(valueBytes)
		return nil
	})
	return value, err
}

// GetRegAll returns every register written so far
func (s *RegState) GetRegAll() (map[uint16]uint16, error) {
	regs := make(map[uint16]uint16)
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return ErrNotFound{What: fmt.Sprintf("bucket %s", s.bucket)}
		}
		return b.ForEach(func(k, v []byte) error {
			regs[binary.BigEndian.Uint16(k)] = binary.BigEndian.Uint16(v)
			return nil
		})
	})
	return regs, err
}
