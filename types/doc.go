// Package types provides core types shared across the amendo library.
// This package has ZERO dependencies on other amendo packages to avoid
// circular imports. All other packages should import types from here.
//
// It defines the conversation message model (Role, Message, MessageBuilder)
// and the structured error model (ErrorCode, Error) used by the generation,
// speech, video, and structured-output subsystems.
package types
