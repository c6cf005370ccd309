package client

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"io"

	"github.com/pkg/errors"
)

const (
	RsaMinBits        = 2048
	RsaPrivateKeyType = "RSA PRIVATE KEY"
	RsaPublicKeyType  = "RSA PUBLIC KEY"
	PkixPublicKeyType = "PUBLIC KEY"
)

type Key interface {
	Base64() string
	Public() Key
	Pem() (out []byte)
}

var Keys keyUtils = keyUtils{Rsa: rsaUtils{}}

type keyUtils struct {
	Rsa rsaUtils
}

// RsaPublicKey encrypts Init extra data for the gateway, the way openssl's
// public encrypt does (PKCS #1 v1.5 padding).
type RsaPublicKey struct {
	val *rsa.PublicKey
}

func (k *RsaPublicKey) Encrypt(message []byte) ([]byte, error) {
	if k == nil || k.val == nil {
		return nil, errors.Errorf("rsa public key not initialised")
	} else if limit := k.val.Size() - 11; len(message) > limit {
		return nil, errors.Errorf("message of %d bytes exceeds %d bytes allowed by a %d bit key", len(message), limit, k.val.Size()*8)
	}
	return rsa.EncryptPKCS1v15(rand.Reader, k.val, message)
}

func (k *RsaPublicKey) Pem() (out []byte) {
	data, err := x509.MarshalPKIXPublicKey(k.val)
	if err != nil {
		return
	}
	pemBytes := new(bytes.Buffer)
	if err = pem.Encode(pemBytes, &pem.Block{
		Bytes: data,
		Type:  PkixPublicKeyType,
	}); err != nil {
		return nil
	}
	return pemBytes.Bytes()
}

func (k *RsaPublicKey) Base64() string {
	byts := x509.MarshalPKCS1PublicKey(k.val)
	return base64.StdEncoding.EncodeToString(byts)
}

func (k *RsaPublicKey) Public() Key {
	return k
}

// RsaPrivateKey is the counterpart of the gateway key. Stores use it to
// produce key pairs; the SDK itself only encrypts.
type RsaPrivateKey struct {
	val *rsa.PrivateKey
}

func (k *RsaPrivateKey) Public() Key {
	return &RsaPublicKey{val: &k.val.PublicKey}
}

func (k *RsaPrivateKey) Base64() string {
	byts := x509.MarshalPKCS1PrivateKey(k.val)
	return base64.StdEncoding.EncodeToString(byts)
}

func (k *RsaPrivateKey) Pem() (out []byte) {
	pemBytes := new(bytes.Buffer)
	if err := pem.Encode(pemBytes, &pem.Block{
		Bytes: x509.MarshalPKCS1PrivateKey(k.val),
		Type:  RsaPrivateKeyType,
	}); err != nil {
		return nil
	}
	return pemBytes.Bytes()
}

func (k *RsaPrivateKey) Decrypt(cipher []byte) ([]byte, error) {
	return rsa.DecryptPKCS1v15(rand.Reader, k.val, cipher)
}

type rsaUtils struct{}

func (rsaUtils) Generate(bitSize ...int) (out *RsaPrivateKey, err error) {
	_bitSize := RsaMinBits
	if len(bitSize) > 0 {
		if bitSize[0] < RsaMinBits {
			return nil, errors.Errorf("insufficient rsa bit size %d", bitSize[0])
		} else {
			_bitSize = bitSize[0]
		}
	}
	out = &RsaPrivateKey{}
	out.val, err = rsa.GenerateKey(rand.Reader, _bitSize)
	return
}

// DecodePublicPem reads a PKIX ("PUBLIC KEY") or PKCS #1 ("RSA PUBLIC KEY")
// encoded public key.
func (rsaUtils) DecodePublicPem(reader io.Reader) (out *RsaPublicKey, err error) {
	var ok bool
	var parsedKey interface{}
	var publicKey *rsa.PublicKey
	pubPem, _ := pem.Decode(bytesFromReader(reader))
	if pubPem == nil {
		return nil, errors.Errorf("no PEM data found in RSA public key")
	}
	switch pubPem.Type {
	case PkixPublicKeyType:
		if parsedKey, err = x509.ParsePKIXPublicKey(pubPem.Bytes); err != nil {
			return nil, errors.Wrapf(err, "Unable to parse RSA public key")
		} else if publicKey, ok = parsedKey.(*rsa.PublicKey); !ok {
			return nil, errors.Errorf("public key is not an RSA key: %T", parsedKey)
		}
	case RsaPublicKeyType:
		if publicKey, err = x509.ParsePKCS1PublicKey(pubPem.Bytes); err != nil {
			return nil, errors.Wrapf(err, "Unable to parse RSA public key")
		}
	default:
		return nil, errors.Errorf("RSA public key is of the wrong type :%s", pubPem.Type)
	}
	return &RsaPublicKey{val: publicKey}, nil
}

func (rsaUtils) ParsePublicPem(key string) (*RsaPublicKey, error) {
	return Keys.Rsa.DecodePublicPem(bytes.NewReader([]byte(key)))
}

func (rsaUtils) DecodePem(reader io.Reader) (out *RsaPrivateKey, err error) {
	var ok bool
	var parsedKey interface{}
	var privateKey *rsa.PrivateKey
	privPem, _ := pem.Decode(bytesFromReader(reader))
	if privPem == nil {
		return nil, errors.Errorf("no PEM data found in RSA private key")
	} else if privPem.Type != RsaPrivateKeyType {
		return nil, errors.Errorf("RSA private key is of the wrong type :%s", privPem.Type)
	}
	if parsedKey, err = x509.ParsePKCS1PrivateKey(privPem.Bytes); err != nil {
		if parsedKey, err = x509.ParsePKCS8PrivateKey(privPem.Bytes); err != nil {
			return nil, errors.Wrapf(err, "Unable to parse RSA private key")
		}
	}
	if privateKey, ok = parsedKey.(*rsa.PrivateKey); !ok {
		return nil, errors.Errorf("Unable to parse RSA private key")
	}
	return &RsaPrivateKey{val: privateKey}, nil
}
