package client

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kod2ulz/bigfish-paymentgateway/stores"
)

// KeyStore serves the encryption public key PEM. *stores.MinioClient
// satisfies it.
type KeyStore interface {
	StreamObject(ctx context.Context, bucket, key string, out stores.ObjectReaderFunc) error
}

func bytesFromReader(reader io.Reader) (out []byte) {
	buffer := new(bytes.Buffer)
	if _, err := buffer.ReadFrom(reader); err != nil {
		return nil
	}
	return buffer.Bytes()
}

func loadPublicKey(ctx context.Context, log *logrus.Entry, store KeyStore, bucket, keyPath string) (out *RsaPublicKey, pemKey string, err error) {
	log.Debug("loading from storage")
	if err = store.StreamObject(ctx, bucket, keyPath, func(i int64, s string, reader io.ReadCloser) (e error) {
		defer reader.Close()
		data := bytesFromReader(reader)
		if out, e = Keys.Rsa.DecodePublicPem(bytes.NewReader(data)); e == nil {
			pemKey = string(data)
		}
		return
	}); err != nil {
		err = errors.Wrapf(err, "failed to load encryption public key %s/%s", bucket, keyPath)
		log.WithError(err).Error("failed")
		return
	}
	log.Info("loaded from storage")
	return
}
