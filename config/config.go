// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package config

import (
	"flag"
	"os"
)

var (
	HttpPort            string = "80"  // explicit default
	HttpsPort           string = "443" // explicit default
	LetsencryptDomains  string
	LetsencryptEmail    string
	LetsencryptCacheDir string
	HttpsCertFile       string
	HttpsKeyFile        string
	DataFile            string
	PipelineFile        string
	Env                 string = "prod" // explicit default
	LogLevel            string
	Process             string
	ResetData           bool
)

func init() {
	flag.StringVar(
		&HttpPort,
		"http-port",
		getenv("IXL_HTTP_PORT", HttpPort),
		"Port to serve (insecure) HTTP clients on. Defaults to environment variable IXL_HTTP_PORT.",
	)
	flag.StringVar(
		&HttpsPort,
		"https-port",
		getenv("IXL_HTTPS_PORT", HttpsPort),
		"Port to serve HTTPS and HTTP/2 clients on. Defaults to environment variable IXL_HTTPS_PORT.",
	)
	flag.StringVar(
		&LetsencryptDomains,
		"letsencrypt-domains",
		getenv("IXL_LETSENCRYPT_DOMAINS", LetsencryptDomains),
		"Comma-separated list of HTTPS domains to automatically secure via LetsEncrypt. Defaults to environment variable IXL_LETSENCRYPT_DOMAINS.",
	)
	flag.StringVar(
		&LetsencryptEmail,
		"letsencrypt-email",
		getenv("IXL_LETSENCRYPT_EMAIL", LetsencryptEmail),
		"Sets the contact email for LetsEncrypt. Required if --letsencrypt-domains is set. Defaults to environment variable IXL_LETSENCRYPT_EMAIL.",
	)
	flag.StringVar(
		&LetsencryptCacheDir,
		"letsencrypt-cache-dir",
		getenv("IXL_LETSENCRYPT_CACHE_DIR", LetsencryptCacheDir),
		"Sets the LetsEncrypt file cache location. Required if --letsencrypt-domains is set. Defaults to environment variable IXL_LETSENCRYPT_CACHE_DIR.",
	)
	flag.StringVar(
		&HttpsCertFile,
		"https-cert-file",
		getenv("IXL_HTTPS_CERT_FILE", HttpsCertFile),
		"Path to TLS certificate. Has no effect if LetsEncrypt is configured. Defaults to environment variable IXL_HTTPS_CERT_FILE.",
	)
	flag.StringVar(
		&HttpsKeyFile,
		"https-key-file",
		getenv("IXL_HTTPS_KEY_FILE", HttpsKeyFile),
		"Path to TLS private key file. Has no effect if LetsEncrypt is configured. Defaults to environment variable IXL_HTTPS_KEY_FILE.",
	)
	flag.StringVar(
		&DataFile,
		"data-file",
		getenv("IXL_DATA_FILE", DataFile),
		"Path to data file. Required in server mode. Defaults to environment variable IXL_DATA_FILE.",
	)
	flag.StringVar(
		&PipelineFile,
		"pipeline",
		getenv("IXL_PIPELINE", PipelineFile),
		"Required. Path to the YAML pipeline file holding script and schemas. Defaults to environment variable IXL_PIPELINE.",
	)
	flag.StringVar(
		&Env,
		"env",
		getenv("IXL_ENV", Env),
		"Logging environment: prod, dev or local. Defaults to environment variable IXL_ENV.",
	)
	flag.StringVar(
		&LogLevel,
		"log-level",
		getenv("IXL_LOG_LEVEL", LogLevel),
		"Overrides the log level: debug, info, warn or error. Defaults to environment variable IXL_LOG_LEVEL.",
	)
	flag.StringVar(
		&Process,
		"process",
		Process,
		"Run the pipeline over a JSON-lines file (- for stdin), write results to stdout and exit.",
	)
	flag.BoolVar(
		&ResetData,
		"reset-data",
		getenv("IXL_RESET_DATA", "") == "true",
		"Drop stored documents if the data file was written by a different pipeline. Defaults to environment variable IXL_RESET_DATA.",
	)
}

func getenv(key string, deflt string) string {
	v := os.Getenv(key)
	if v == "" {
		return deflt
	}
	return v
}
