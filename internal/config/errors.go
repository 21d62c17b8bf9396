package config

import "github.com/ayoisaiah/workstate/internal/apperr"

var (
	errConfigOption = &apperr.Error{
		Message: "config option error",
	}

	errConfigValidation = &apperr.Error{
		Message: "config validation error",
	}

	errReadConfig = &apperr.Error{
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Message: "writing default config failed",
	}

	errInvalidInterval = &apperr.Error{
		Message: "%s must be at least %v, got %v",
	}

	errNegativeThreshold = &apperr.Error{
		Message: "%s idle threshold cannot be negative, got %d minutes",
	}

	errNegativeRate = &apperr.Error{
		Message: "%s default rate cannot be negative, got %v",
	}

	errInvalidCurrency = &apperr.Error{
		Message: "%s currency must be a three-letter ISO code, got %q",
	}

	errUnknownLogLevel = &apperr.Error{
		Message: "unknown log level %q (expected debug, info, warn or error)",
	}

	errMissingUser = &apperr.Error{
		Message: "no user specified: pass --user or set WORKSTATE_USER",
	}

	errInvalidCLIDuration = &apperr.Error{
		Message: "invalid %s value %q",
	}
)
