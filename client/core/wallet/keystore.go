package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"github.com/weisyn/bounty/pkg/utils/address"
)

const (
	keystoreVersion = "1.0.0"
	keystoreExt     = ".json"

	// DefaultKDFIterations PBKDF2 默认迭代次数
	DefaultKDFIterations = 262144
)

var (
	// ErrAccountNotFound keystore 中没有该地址
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists 地址已存在
	ErrAccountExists = errors.New("account already exists")
	// ErrWrongPassword 密码错误或文件被篡改
	ErrWrongPassword = errors.New("wrong password")
)

// KeystoreV1 Keystore文件格式(v1.0.0)
type KeystoreV1 struct {
	Version   string   `json:"version"`
	ID        string   `json:"id"`
	Address   string   `json:"address"`
	Crypto    CryptoV1 `json:"crypto"`
	CreatedAt string   `json:"created_at"`
	Label     string   `json:"label,omitempty"`
}

// CryptoV1 加密参数
type CryptoV1 struct {
	Cipher       string       `json:"cipher"`     // "aes-256-gcm"
	Ciphertext   string       `json:"ciphertext"` // hex编码
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"` // "pbkdf2"
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

// CipherParams 密码参数
type CipherParams struct {
	IV string `json:"iv"`
}

// KDFParams 密钥派生参数
type KDFParams struct {
	DKLen int    `json:"dklen"`
	Salt  string `json:"salt"`
	C     int    `json:"c"`
	PRF   string `json:"prf"` // "hmac-sha256"
}

// Account keystore 中的账户摘要
type Account struct {
	Address   string    `json:"address"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Path      string    `json:"-"`
}

// Keystore 以目录保存加密私钥，每个地址一个文件
type Keystore struct {
	dir        string
	iterations int
	now        func() time.Time
}

// KeystoreOption 配置项
type KeystoreOption func(*Keystore)

// WithKDFIterations 覆盖 PBKDF2 迭代次数，测试中用于加速
func WithKDFIterations(n int) KeystoreOption {
	return func(ks *Keystore) {
		if n > 0 {
			ks.iterations = n
		}
	}
}

// NewKeystore 打开（必要时创建）keystore 目录
func NewKeystore(dir string, opts ...KeystoreOption) (*Keystore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("keystore dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	ks := &Keystore{dir: dir, iterations: DefaultKDFIterations, now: time.Now}
	for _, opt := range opts {
		opt(ks)
	}
	return ks, nil
}

// Dir keystore 目录
func (ks *Keystore) Dir() string {
	return ks.dir
}

func (ks *Keystore) pathOf(addr string) string {
	return filepath.Join(ks.dir, strings.TrimSpace(addr)+keystoreExt)
}

// Store 加密保存签名器的私钥
func (ks *Keystore) Store(signer *KeySigner, password, label string) (*Account, error) {
	if signer == nil {
		return nil, errors.New("signer is required")
	}
	if password == "" {
		return nil, errors.New("password is required")
	}
	path := ks.pathOf(signer.Address())
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, signer.Address())
	}

	crypto, err := encrypt(signer.PrivateKeyBytes(), password, ks.iterations)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	created := ks.now().UTC()
	file := KeystoreV1{
		Version:   keystoreVersion,
		ID:        uuid.NewString(),
		Address:   signer.Address(),
		Crypto:    crypto,
		CreatedAt: created.Format(time.RFC3339),
		Label:     label,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal keystore: %w", err)
	}
	// O_EXCL 防止并发写入覆盖同一地址
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrAccountExists, signer.Address())
		}
		return nil, fmt.Errorf("write keystore: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, fmt.Errorf("write keystore: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write keystore: %w", err)
	}

	return &Account{Address: signer.Address(), Label: label, CreatedAt: created.Truncate(time.Second), Path: path}, nil
}

// List 按创建时间列出账户，损坏的文件被跳过
func (ks *Keystore) List() ([]*Account, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var accounts []*Account
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != keystoreExt {
			continue
		}
		file, err := ks.load(filepath.Join(ks.dir, entry.Name()))
		if err != nil {
			continue
		}
		accounts = append(accounts, accountOf(file, filepath.Join(ks.dir, entry.Name())))
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].Address < accounts[j].Address
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// Resolve 确定要使用的地址：显式指定时校验存在，否则要求 keystore 中恰好一个账户
func (ks *Keystore) Resolve(addr string) (string, error) {
	if addr = strings.TrimSpace(addr); addr != "" {
		if err := address.Validate(addr); err != nil {
			return "", err
		}
		if _, err := os.Stat(ks.pathOf(addr)); err != nil {
			return "", fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
		}
		return addr, nil
	}
	accounts, err := ks.List()
	if err != nil {
		return "", err
	}
	switch len(accounts) {
	case 0:
		return "", fmt.Errorf("%w: keystore %s is empty", ErrAccountNotFound, ks.dir)
	case 1:
		return accounts[0].Address, nil
	default:
		return "", fmt.Errorf("keystore has %d accounts, specify one with --from", len(accounts))
	}
}

// Open 解密私钥并返回签名器
func (ks *Keystore) Open(addr, password string) (*KeySigner, error) {
	addr, err := ks.Resolve(addr)
	if err != nil {
		return nil, err
	}
	file, err := ks.load(ks.pathOf(addr))
	if err != nil {
		return nil, err
	}
	raw, err := decrypt(file.Crypto, password)
	if err != nil {
		return nil, err
	}
	signer, err := NewKeySignerFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if signer.Address() != file.Address {
		return nil, fmt.Errorf("keystore address mismatch: file %s, key %s", file.Address, signer.Address())
	}
	return signer, nil
}

// Delete 删除账户文件
func (ks *Keystore) Delete(addr string) error {
	err := os.Remove(ks.pathOf(addr))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return err
}

func (ks *Keystore) load(path string) (*KeystoreV1, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	var file KeystoreV1
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse keystore %s: %w", filepath.Base(path), err)
	}
	if file.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version %q", file.Version)
	}
	return &file, nil
}

func accountOf(file *KeystoreV1, path string) *Account {
	created, _ := time.Parse(time.RFC3339, file.CreatedAt)
	return &Account{Address: file.Address, Label: file.Label, CreatedAt: created, Path: path}
}

// ===== 加密/解密 =====

func keyMAC(key, ciphertext []byte) []byte {
	h := sha256.New()
	h.Write(key[16:])
	h.Write(ciphertext)
	return h.Sum(nil)
}

func encrypt(plaintext []byte, password string, iterations int) (CryptoV1, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return CryptoV1{}, fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return CryptoV1{}, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return CryptoV1{}, fmt.Errorf("new gcm: %w", err)
	}
	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return CryptoV1{}, fmt.Errorf("generate iv: %w", err)
	}
	ciphertext := gcm.Seal(nil, iv, plaintext, nil)

	return CryptoV1{
		Cipher:       "aes-256-gcm",
		Ciphertext:   hex.EncodeToString(ciphertext),
		CipherParams: CipherParams{IV: hex.EncodeToString(iv)},
		KDF:          "pbkdf2",
		KDFParams: KDFParams{
			DKLen: 32,
			Salt:  hex.EncodeToString(salt),
			C:     iterations,
			PRF:   "hmac-sha256",
		},
		MAC: hex.EncodeToString(keyMAC(key, ciphertext)),
	}, nil
}

func decrypt(crypto CryptoV1, password string) ([]byte, error) {
	if crypto.KDF != "pbkdf2" {
		return nil, fmt.Errorf("unsupported KDF: %s", crypto.KDF)
	}
	if crypto.Cipher != "aes-256-gcm" {
		return nil, fmt.Errorf("unsupported cipher: %s", crypto.Cipher)
	}
	salt, err := hex.DecodeString(crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	ciphertext, err := hex.DecodeString(crypto.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	iv, err := hex.DecodeString(crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	mac, err := hex.DecodeString(crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("decode mac: %w", err)
	}
	if crypto.KDFParams.DKLen != 32 || crypto.KDFParams.C <= 0 {
		return nil, fmt.Errorf("invalid kdf params: dklen=%d c=%d", crypto.KDFParams.DKLen, crypto.KDFParams.C)
	}

	key := pbkdf2.Key([]byte(password), salt, crypto.KDFParams.C, crypto.KDFParams.DKLen, sha256.New)
	if subtle.ConstantTimeCompare(keyMAC(key, ciphertext), mac) != 1 {
		return nil, ErrWrongPassword
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	if len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("invalid iv length %d", len(iv))
	}
	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}
