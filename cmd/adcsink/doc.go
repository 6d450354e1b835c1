// Command adcsink receives ADC sample payloads over HTTP and appends them to
// a file.
//
// Devices POST raw sample buffers to "/adc_samples" on port 8000. Every
// request body is appended as-is to "adc.raw" in the working directory and
// answered with "OK". Nothing is done to the payload: no decoding, no
// framing, and whatever the Content-Type header says is ignored.
//
// Settings come from a relaxed JSON file (see -config); all are optional:
//
//	{
//		bind_address: "0.0.0.0"
//		port: 8000
//		output_file: "adc.raw"
//		strict: false
//		capture_dir: "takes"
//		metrics_address: "localhost:9100"
//		mirror: {
//			type: "s3"
//			profile: "adcsink"
//			region: "eu-west-2"
//			bucket: "adc-samples"
//			rate: 5
//		}
//	}
//
// If binding the address fails the command exits with status 1.
package main // import "github.com/nicolagi/adcsink/cmd/adcsink"
