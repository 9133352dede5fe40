package config

import (
	"errors"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

var ErrReDecodeDefaultConfig = errors.New("can not redecode default config")

var validate = validator.New()

func Decode(config *Server, path string) error {
	_, err := toml.DecodeFile(path, config)
	if err != nil {
		return err
	}

	if err = validate.Struct(config); err != nil {
		return err
	}

	config.filePath, err = filepath.Abs(path)
	return err
}

func ReDecode(config *Server, old *Server) error {
	if old.filePath == Default.filePath {
		return ErrReDecodeDefaultConfig
	}

	return Decode(config, old.filePath)
}
