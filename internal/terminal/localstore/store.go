// Package localstore é o armazenamento durável do terminal, sobre LevelDB.
//
// Todas as chaves ficam sob um namespace versionado (pdv/v1/<bucket>/<chave>).
// A versão gravada em pdv/meta/schema_version é conferida na abertura: dados de
// uma versão anterior têm o cache descartado e a fila migrada, e dados de uma
// versão mais nova fazem a abertura falhar.
package localstore

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/hugohenrick/pdv-sync/pkg/logger"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// SchemaVersion é a versão atual do formato dos dados locais
const SchemaVersion = 1

// Buckets preservados ao migrar de uma versão anterior
var durableBuckets = []string{"queue", "meta"}

var schemaKey = []byte("pdv/meta/schema_version")

// Erros do armazenamento local
var (
	ErrNotFound      = errors.New("registro local não encontrado")
	ErrSchemaTooNew  = errors.New("dados locais gravados por uma versão mais nova do terminal")
	ErrInvalidSchema = errors.New("versão dos dados locais inválida")
)

// Store é o armazenamento chave-valor do terminal
type Store struct {
	db  *leveldb.DB
	log logger.Logger
}

// Open abre (ou cria) o armazenamento no diretório informado
func Open(path string, log logger.Logger) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir armazenamento local em %s: %w", path, err)
	}
	return newStore(db, log)
}

// OpenInMemory abre um armazenamento volátil (usado em testes)
func OpenInMemory(log logger.Logger) (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir armazenamento em memória: %w", err)
	}
	return newStore(db, log)
}

func newStore(db *leveldb.DB, log logger.Logger) (*Store, error) {
	s := &Store{db: db, log: log}
	if err := s.checkSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close fecha o armazenamento
func (s *Store) Close() error {
	return s.db.Close()
}

func namespace(version int) string {
	return "pdv/v" + strconv.Itoa(version) + "/"
}

func key(bucket, k string) []byte {
	return []byte(namespace(SchemaVersion) + bucket + "/" + k)
}

func bucketPrefix(bucket string) []byte {
	return []byte(namespace(SchemaVersion) + bucket + "/")
}

func (s *Store) checkSchema() error {
	raw, err := s.db.Get(schemaKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return s.db.Put(schemaKey, []byte(strconv.Itoa(SchemaVersion)), nil)
	}
	if err != nil {
		return fmt.Errorf("erro ao ler versão dos dados locais: %w", err)
	}

	version, err := strconv.Atoi(string(raw))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSchema, raw)
	}

	switch {
	case version == SchemaVersion:
		return nil
	case version > SchemaVersion:
		return fmt.Errorf("%w: %d (suportada: %d)", ErrSchemaTooNew, version, SchemaVersion)
	default:
		return s.upgrade(version)
	}
}

// upgrade move a fila e os metadados para o namespace atual e descarta o cache antigo
func (s *Store) upgrade(from int) error {
	oldPrefix := []byte(namespace(from))
	batch := new(leveldb.Batch)
	kept, dropped := 0, 0

	iter := s.db.NewIterator(util.BytesPrefix(oldPrefix), nil)
	for iter.Next() {
		rest := bytes.TrimPrefix(iter.Key(), oldPrefix)
		if isDurable(rest) {
			batch.Put(append([]byte(namespace(SchemaVersion)), rest...), append([]byte(nil), iter.Value()...))
			kept++
		} else {
			dropped++
		}
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return fmt.Errorf("erro ao migrar dados locais: %w", err)
	}

	batch.Put(schemaKey, []byte(strconv.Itoa(SchemaVersion)))
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("erro ao migrar dados locais: %w", err)
	}

	s.log.Warn("Dados locais migrados", "from", from, "to", SchemaVersion, "kept", kept, "dropped", dropped)
	return nil
}

func isDurable(rest []byte) bool {
	for _, b := range durableBuckets {
		if bytes.HasPrefix(rest, []byte(b+"/")) {
			return true
		}
	}
	return false
}

// Get lê o valor bruto de uma chave
func (s *Store) Get(bucket, k string) ([]byte, error) {
	v, err := s.db.Get(key(bucket, k), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

// GetJSON lê e decodifica o valor de uma chave
func (s *Store) GetJSON(bucket, k string, v any) error {
	raw, err := s.Get(bucket, k)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Iterate percorre o bucket em ordem de chave
func (s *Store) Iterate(bucket string, fn func(k string, value []byte) error) error {
	prefix := bucketPrefix(bucket)
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	for iter.Next() {
		if err := fn(string(bytes.TrimPrefix(iter.Key(), prefix)), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Update aplica as escritas de fn de forma atômica.
// Se fn retornar erro nada é gravado.
func (s *Store) Update(fn func(b *Batch) error) error {
	b := &Batch{batch: new(leveldb.Batch)}
	if err := fn(b); err != nil {
		return err
	}
	if b.batch.Len() == 0 {
		return nil
	}
	return s.db.Write(b.batch, &opt.WriteOptions{Sync: true})
}

// Batch acumula escritas para Update
type Batch struct {
	batch *leveldb.Batch
}

// Put grava o valor bruto
func (b *Batch) Put(bucket, k string, value []byte) {
	b.batch.Put(key(bucket, k), value)
}

// PutJSON codifica e grava o valor
func (b *Batch) PutJSON(bucket, k string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("erro ao codificar registro local: %w", err)
	}
	b.Put(bucket, k, raw)
	return nil
}

// Delete remove a chave
func (b *Batch) Delete(bucket, k string) {
	b.batch.Delete(key(bucket, k))
}
