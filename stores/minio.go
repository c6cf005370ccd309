package stores

import (
	"context"
	"io"
	"time"

	"github.com/kod2ulz/gostart/object"
	"github.com/kod2ulz/gostart/utils"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type MinioConfig struct {
	UseSSL    bool
	AccessKey string
	SecretKey string
	Endpoint  string
	Timeout   time.Duration
}

func NewMinioConfig(prefix ...string) *MinioConfig {
	env := utils.Env.Helper(prefix...).OrDefault("MINIO_STORAGE")
	return &MinioConfig{
		UseSSL:    env.Get("USE_SSL", "true").Bool(),
		AccessKey: env.Get("ACCESS_KEY", "invalid-minio-key").String(),
		SecretKey: env.Get("SECRET_KEY", "invalid-minio-key").String(),
		Endpoint:  env.Get("ENDPOINT", "minio.example.dev").String(),
		Timeout:   env.Get("TIMEOUT", "10s").Duration(),
	}
}

func Minio(log *logrus.Entry, conf *MinioConfig) (out *MinioClient, err error) {
	var client *minio.Client
	if conf == nil {
		conf = NewMinioConfig()
	}
	if client, err = minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure: conf.UseSSL,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to initialise minio client")
	}
	log.WithField("endpoint", conf.Endpoint).Info("initialised minio client")
	return &MinioClient{Client: client, log: log, timeout: conf.Timeout}, nil
}

type MinioClient struct {
	log     *logrus.Entry
	timeout time.Duration
	*minio.Client
}

// ObjectReaderFunc expects you to handle the closing yourself
type ObjectReaderFunc func(int64, string, io.ReadCloser) error

func (c *MinioClient) StreamObject(ctx context.Context, bucket, key string, out ObjectReaderFunc) (err error) {
	var reader *minio.Object
	var info minio.ObjectInfo
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if reader, err = c.GetObject(ctx, bucket, key, minio.GetObjectOptions{}); err != nil {
		return errors.Wrapf(err, "error fetching object %s from bucket %s", key, bucket)
	} else if reader == nil {
		return errors.Errorf("object %s/%s returned empty object from storage", bucket, key)
	}
	if info, err = reader.Stat(); err != nil {
		reader.Close()
		return errors.Wrapf(err, "failed to stat file retrieved from %s/%s", bucket, key)
	} else if info.Size == 0 {
		reader.Close()
		return errors.Errorf("object %s/%s returned empty object from storage", bucket, key)
	}
	var filename string = object.String(key).Split("/").Last()
	c.log.WithField("object", bucket+"/"+key).Debug("streaming object")
	return out(info.Size, filename, reader)
}
