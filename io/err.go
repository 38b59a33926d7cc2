package io

import (
	"errors"

	"github.com/ezrec/hm32/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrChannelNoInput  = errors.New(f("channel has no input"))
	ErrChannelNoOutput = errors.New(f("channel has no output"))
	ErrChannelFull     = errors.New(f("channel full"))
)
