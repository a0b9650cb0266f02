// internal/service/template_service.go
package service

import (
	"strings"
)

const donorRequestTemplate = "URGENT: {hospital_name} needs blood type {blood_type} within {radius} km. " +
	"Please respond if you can donate. Thank you for saving lives!"

const donorCancelTemplate = "The blood request from {hospital_name} for {blood_type} has been cancelled."

const (
	hospitalRespondSubject  = "A donor responded to your blood request"
	hospitalRespondTemplate = "A donor ({donor_name}) has responded to your blood request for {blood_type}. Request ID: {request_id}"
)

func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = "<unknown>"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}
